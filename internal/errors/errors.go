package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidPGN   = "INVALID_PGN"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeQueueFull    = "QUEUE_FULL"
	ErrCodeStorageFull  = "STORAGE_FULL"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "INVALID_PGN")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As returns the AppError in err's chain, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// AsTarget finds the first error in err's chain that matches target, as errors.As does.
func AsTarget(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewInvalidPGNError reports a game the rules engine rejected after sanitization.
func NewInvalidPGNError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidPGN,
		Message: "invalid PGN",
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// NewUnavailableError reports a degraded external dependency.
func NewUnavailableError(service string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUnavailable,
		Message: fmt.Sprintf("%s unavailable", service),
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// NewQueueFullError reports a rejected background job.
func NewQueueFullError(queue string) *AppError {
	return &AppError{
		Code:    ErrCodeQueueFull,
		Message: fmt.Sprintf("%s queue is full", queue),
		Status:  http.StatusServiceUnavailable,
	}
}

// NewStorageFullError reports that the game store reached its size limit.
func NewStorageFullError(used, max int64) *AppError {
	return &AppError{
		Code:    ErrCodeStorageFull,
		Message: fmt.Sprintf("storage limit reached (%d of %d bytes used), delete some games", used, max),
		Status:  http.StatusRequestEntityTooLarge,
	}
}

// NewUnauthorizedError reports a missing or wrong API token.
func NewUnauthorizedError() *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: "missing or invalid API token",
		Status:  http.StatusUnauthorized,
	}
}
