package middleware

import (
	"encoding/json"
	"net/http"

	"grievancedesk/models"
)

func respondWithError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   errorType,
		Message: message,
		Code:    statusCode,
	})
}
