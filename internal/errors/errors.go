// Package errors provides the standardized error taxonomy used across the
// ingestion and retrieval paths.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents semantic error codes for consistent error handling.
type ErrorCode string

const (
	// ErrorCodeValidation marks malformed input; nothing is persisted.
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"

	// ErrorCodeNotFound marks a requested day/hour/chunk/chatroom that does
	// not exist. Read paths convert it to an explicit "no data" result.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeDependencyDegraded marks a failed or timed-out embedding or
	// text-generation call. Always recovered locally via fallback.
	ErrorCodeDependencyDegraded ErrorCode = "DEPENDENCY_DEGRADED"

	// ErrorCodePartialWrite marks a vector-index write that failed after the
	// durable store write succeeded. The chunk remains authoritative.
	ErrorCodePartialWrite ErrorCode = "PARTIAL_WRITE"

	// ErrorCodeConcurrencyConflict marks a uniqueness-constraint violation
	// during a bucket creation race. Recovered by re-reading.
	ErrorCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"

	// ErrorCodeStore marks a durable store failure on a primary write;
	// the operation is aborted.
	ErrorCodeStore ErrorCode = "STORE_ERROR"

	// ErrorCodeInternal is the catch-all for unexpected failures.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// AppError is the typed error carried across component boundaries.
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with a code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap creates an AppError wrapping a cause.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewValidation creates a validation error for a specific field.
func NewValidation(field, reason string) *AppError {
	return &AppError{
		Code:    ErrorCodeValidation,
		Message: fmt.Sprintf("validation failed for %q: %s", field, reason),
		Details: map[string]string{"field": field, "reason": reason},
	}
}

// NewNotFound creates a not-found error for a resource.
func NewNotFound(resource string) *AppError {
	return &AppError{
		Code:    ErrorCodeNotFound,
		Message: resource + " not found",
	}
}

// codeOf extracts the ErrorCode from err, or ErrorCodeInternal.
func codeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return codeOf(err) == ErrorCodeValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return codeOf(err) == ErrorCodeNotFound }

// IsConflict reports whether err is a concurrency conflict.
func IsConflict(err error) bool { return codeOf(err) == ErrorCodeConcurrencyConflict }

// HTTPStatus maps an error to the HTTP status the API layer should emit.
func HTTPStatus(err error) int {
	switch codeOf(err) {
	case ErrorCodeValidation:
		return http.StatusBadRequest
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeConcurrencyConflict:
		return http.StatusConflict
	case ErrorCodeStore, ErrorCodeInternal, ErrorCodeDependencyDegraded, ErrorCodePartialWrite:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
