// Package handler contains the HTTP layer: request parsing, error
// mapping, and response shaping. Business rules live in the service
// layer; handlers stay thin.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gregsypek/devflow/internal/apperror"
)

// maxBodyBytes bounds request bodies; question content fits comfortably.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // machine-readable kind, e.g. "not_found"
	Message string            `json:"message"`          // human-readable description
	Fields  map[string]string `json:"fields,omitempty"` // per-field validation problems
}

// writeJSON sends a JSON response with the given status code. Headers
// must be written before the body, hence the ordering.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a service error to an HTTP status. Typed application
// errors carry their own safe message; anything untyped becomes an
// opaque 500 so internal details never reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			kind = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			kind = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			kind = "conflict"
		}

		resp := ErrorResponse{Error: kind, Message: appErr.Message, Fields: appErr.Fields}
		if resp.Fields == nil && appErr.Field != "" {
			resp.Fields = map[string]string{appErr.Field: appErr.Message}
		}
		writeJSON(w, status, resp)
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads and decodes a request body into dst. Malformed input
// comes back as a validation error, not a 500.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", "invalid JSON payload")
	}
	return nil
}
