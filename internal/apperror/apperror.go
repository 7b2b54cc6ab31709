// Package apperror defines the application's error taxonomy.
//
// Services return these typed errors; the HTTP layer maps them to status
// codes with errors.Is/As. Sentinel errors classify the failure, AppError
// carries the user-facing message plus optional field detail.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransaction  = errors.New("transaction error")
)

// AppError wraps a sentinel error with a human-readable message and,
// for validation failures, the offending field(s).
type AppError struct {
	Err     error             // sentinel, matched with errors.Is
	Message string            // human-readable error message
	Field   string            // optional: single field causing the error
	Fields  map[string]string // optional: field name → problem description
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ValidationFields reports several field-level problems at once, e.g. the
// result of validating a request payload struct.
func ValidationFields(fields map[string]string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: "invalid input",
		Fields:  fields,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized returns an AppError for missing or failed authentication.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Transaction wraps a database/commit failure. The cause stays in the error
// chain for logging; the message shown to callers is generic so storage
// details never leak out.
func Transaction(cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrTransaction, cause),
		Message: "an internal error occurred",
	}
}
