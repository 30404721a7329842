package common

import (
	"errors"
	"net/http"
	"time"
)

// Error codes distinguish policy denials from system failures so callers can
// react accordingly.
const (
	CodeValidation   = "validation_error"
	CodeDuplicate    = "duplicate"
	CodeNotFound     = "not_found"
	CodeAccessDenied = "access_denied"
	CodeRateLimited  = "rate_limited"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
)

// AppError is the application error type carried through service boundaries
type AppError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Err        error         `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to an HTTP status code
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeDuplicate:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAccessDenied:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError reports malformed or unverifiable input
func NewValidationError(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Err: err}
}

// NewDuplicateError reports an already-performed operation
func NewDuplicateError(message string) *AppError {
	return &AppError{Code: CodeDuplicate, Message: message}
}

// NewNotFoundError reports a missing record
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Err: err}
}

// NewAccessDeniedError reports a policy denial with a human-readable reason
func NewAccessDeniedError(message string) *AppError {
	return &AppError{Code: CodeAccessDenied, Message: message}
}

// NewRateLimitError reports a rate-limit denial, optionally with a retry hint
func NewRateLimitError(message string, retryAfter time.Duration) *AppError {
	return &AppError{Code: CodeRateLimited, Message: message, RetryAfter: retryAfter}
}

// NewUnavailableError reports a persistence or downstream failure
func NewUnavailableError(message string, err error) *AppError {
	return &AppError{Code: CodeUnavailable, Message: message, Err: err}
}

// NewInternalServerError reports an unexpected failure
func NewInternalServerError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

// AsAppError unwraps err into an *AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
