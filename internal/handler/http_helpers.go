package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"doc-analyzer/internal/domain"
	apperrors "doc-analyzer/pkg/errors"
)

type errorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeAppError maps err to a status code and body. Errors that are not
// AppErrors are logged and reported as internal errors.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Error("Unhandled error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error(appErr.Message, appErr.Cause, "type", appErr.Type)
	}
	writeJSON(w, appErr.StatusCode, errorResponse{
		Error:   appErr.Message,
		Type:    string(appErr.Type),
		Details: appErr.Details,
	})
}
