package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"grievancedesk/middleware"
	"grievancedesk/models"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError sends an error response
func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	respondWithJSON(w, statusCode, models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	})
}

// respondWithServiceError maps domain errors to HTTP status codes. Anything
// unrecognised is logged and reported as a 500 without details.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondWithError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, models.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", err.Error())
	case errors.Is(err, models.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		respondWithError(w, http.StatusConflict, "Invalid transition", err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal error", "Unexpected error")
	}
}

// actorFromRequest returns the actor set by the auth middleware.
func actorFromRequest(r *http.Request) (models.Actor, error) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		return models.Actor{}, fmt.Errorf("actor not found in context - authentication required")
	}
	return actor, nil
}

// complaintIDFromRequest parses the {ref} path variable.
func complaintIDFromRequest(r *http.Request) (int64, error) {
	return models.ParseComplaintRef(mux.Vars(r)["ref"])
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", models.ErrValidation, err)
	}
	return nil
}
