package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/whist/internal/domain"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Internal errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := statusFor(err)
	detail := err.Error()

	switch status {
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg("request failed")
		detail = "internal server error"
	case http.StatusBadGateway:
		log.Warn().Err(err).Msg("catalog unavailable")
	}

	writeJSON(w, status, errorResponse{Detail: detail})
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(domain.ErrValidation, format, args...)
}
