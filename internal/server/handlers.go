package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/library"
	"github.com/varoOP/whist/internal/schedule"
	"github.com/varoOP/whist/internal/seenin"
	"github.com/varoOP/whist/internal/watch"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Library  library.Service
	Watch    watch.Service
	SeenIn   seenin.Service
	Schedule schedule.Service
	Health   Pinger
}

type Handler struct {
	log zerolog.Logger
	svc Services
}

func NewHandler(log zerolog.Logger, svc Services) *Handler {
	return &Handler{
		log: log.With().Str("module", "server").Logger(),
		svc: svc,
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, invalid("invalid %s %q", name, mux.Vars(r)[name])
	}
	return v, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalid("invalid request body: %v", err)
	}
	return nil
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.svc.Health != nil {
		if err := h.svc.Health.Ping(r.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query string `json:"query"`
}

type searchResult struct {
	TmdbID       int     `json:"tmdb_id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
}

func (h *Handler) SearchShows(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, h.log, invalid("query is required"))
		return
	}

	results, err := h.svc.Library.Search(r.Context(), req.Query)
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		out = append(out, searchResult{
			TmdbID:       res.ID,
			Title:        res.Name,
			Overview:     res.Overview,
			FirstAirDate: res.FirstAirDate,
			PosterPath:   res.PosterPath,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.svc.Library.ListShows(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, shows)
}

type addShowRequest struct {
	TmdbID int    `json:"tmdb_id"`
	Status string `json:"status"`
	Type   string `json:"type"`
}

func (h *Handler) AddShow(w http.ResponseWriter, r *http.Request) {
	var req addShowRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}
	if req.TmdbID <= 0 {
		writeError(w, h.log, invalid("tmdb_id is required"))
		return
	}

	show, err := h.svc.Library.AddShow(r.Context(), req.TmdbID, req.Status, req.Type)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

type updateShowRequest struct {
	UserStatus *string `json:"user_status"`
	WatchPace  *string `json:"watch_pace"`
}

func (h *Handler) UpdateShow(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var req updateShowRequest
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	show, err := h.svc.Library.UpdateShow(r.Context(), id, req.UserStatus, req.WatchPace)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (h *Handler) ShowDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	detail, err := h.svc.Library.ShowDetail(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) Episodes(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	episodes, err := h.svc.Library.Episodes(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}

func (h *Handler) Season(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	season, err := pathInt(r, "season")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	view, err := h.svc.Library.Season(r.Context(), id, season)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	progress, err := h.svc.Library.Progress(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) ShowCast(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	cast, err := h.svc.Library.ShowCast(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cast)
}

func (h *Handler) EpisodeCast(w http.ResponseWriter, r *http.Request) {
	var ids [3]int
	for i, name := range []string{"id", "season", "episode"} {
		v, err := pathInt(r, name)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		ids[i] = v
	}

	cast, err := h.svc.Library.EpisodeCast(r.Context(), ids[0], ids[1], ids[2])
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, cast)
}

type watchedRequest struct {
	TmdbShowID    int     `json:"tmdb_show_id"`
	SeasonNumber  int     `json:"season_number"`
	EpisodeNumber int     `json:"episode_number"`
	Watched       *bool   `json:"watched"`
	WatchedAt     *string `json:"watched_at"`
}

type watchedResponse struct {
	Watched   bool    `json:"watched"`
	WatchedAt *string `json:"watched_at"`
}

// defaultToday presets watched_at so that an absent field means "today"
// while an explicit null still decodes to nil.
func defaultToday() *string {
	today := watch.Today
	return &today
}

func (h *Handler) MarkWatched(w http.ResponseWriter, r *http.Request) {
	req := watchedRequest{WatchedAt: defaultToday()}
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	watched := true
	if req.Watched != nil {
		watched = *req.Watched
	}

	ep, err := h.svc.Watch.SetEpisodeWatched(r.Context(), req.TmdbShowID, req.SeasonNumber, req.EpisodeNumber, watched, req.WatchedAt)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, watchedResponse{Watched: ep.Watched, WatchedAt: ep.WatchedAt})
}

type bulkWatchedRequest struct {
	TmdbShowID   int     `json:"tmdb_show_id"`
	SeasonNumber *int    `json:"season_number"`
	WatchedAt    *string `json:"watched_at"`
}

func (h *Handler) MarkBulkWatched(w http.ResponseWriter, r *http.Request) {
	req := bulkWatchedRequest{WatchedAt: defaultToday()}
	if err := decode(r, &req); err != nil {
		writeError(w, h.log, err)
		return
	}

	marked, err := h.svc.Watch.BulkSetWatched(r.Context(), req.TmdbShowID, req.SeasonNumber, req.WatchedAt)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": marked})
}

func (h *Handler) PersonCredits(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	film, err := h.svc.Library.PersonCredits(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, film)
}

func (h *Handler) SeenIn(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	seen, err := h.svc.SeenIn.SeenIn(r.Context(), id)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, seen)
}

func (h *Handler) ScheduleToday(w http.ResponseWriter, r *http.Request) {
	sched, err := h.svc.Schedule.Today(r.Context())
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, h.log, invalid("invalid limit %q", v))
			return
		}
		limit = n
	}

	events, err := h.svc.Library.History(r.Context(), limit)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

