package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ayaocrm/internal/auth"
	"ayaocrm/internal/middleware"
	"ayaocrm/internal/models"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status, msg := resolveError(err)
	if status == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("unhandled error")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func resolveError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrPermissionDenied):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, models.ErrTimeout):
		return http.StatusGatewayTimeout, err.Error()
	case errors.Is(err, models.ErrExternalService):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}

// actorFrom returns the actor injected by the auth middleware.
func actorFrom(r *http.Request) models.Actor {
	actor, _ := middleware.GetActor(r)
	return actor
}
