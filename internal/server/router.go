package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// NewRouter registers every route of the HTTP surface on a mux router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests(h.log))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/shows", h.ListShows).Methods(http.MethodGet)
	r.HandleFunc("/shows/search", h.SearchShows).Methods(http.MethodPost)
	r.HandleFunc("/shows/add", h.AddShow).Methods(http.MethodPost)
	r.HandleFunc("/shows/{id:[0-9]+}", h.ShowDetail).Methods(http.MethodGet)
	r.HandleFunc("/shows/{id:[0-9]+}", h.UpdateShow).Methods(http.MethodPatch)
	r.HandleFunc("/shows/{id:[0-9]+}/episodes", h.Episodes).Methods(http.MethodGet)
	r.HandleFunc("/shows/{id:[0-9]+}/season/{season:[0-9]+}", h.Season).Methods(http.MethodGet)
	r.HandleFunc("/shows/{id:[0-9]+}/season/{season:[0-9]+}/episode/{episode:[0-9]+}/cast", h.EpisodeCast).Methods(http.MethodGet)
	r.HandleFunc("/shows/{id:[0-9]+}/progress", h.Progress).Methods(http.MethodGet)
	r.HandleFunc("/shows/{id:[0-9]+}/cast", h.ShowCast).Methods(http.MethodGet)

	r.HandleFunc("/episodes/watched", h.MarkWatched).Methods(http.MethodPost)
	r.HandleFunc("/episodes/watched/bulk", h.MarkBulkWatched).Methods(http.MethodPost)

	r.HandleFunc("/people/{id:[0-9]+}/credits", h.PersonCredits).Methods(http.MethodGet)
	r.HandleFunc("/people/{id:[0-9]+}/seen-in", h.SeenIn).Methods(http.MethodGet)

	r.HandleFunc("/schedule/today", h.ScheduleToday).Methods(http.MethodGet)
	r.HandleFunc("/history", h.History).Methods(http.MethodGet)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
