package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeDecode          ErrorType = "decode"
	ErrorTypeRateLimited     ErrorType = "rate_limited"
	ErrorTypeAlreadyInFlight ErrorType = "already_in_flight"
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeNetwork         ErrorType = "network"
	ErrorTypeService         ErrorType = "service"
	ErrorTypeInternal        ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType     `json:"type"`
	Message    string        `json:"message"`
	Details    string        `json:"details,omitempty"`
	StatusCode int           `json:"status_code"`
	RetryAfter time.Duration `json:"-"`
	// UpstreamStatus is the remote service's HTTP status for service errors.
	UpstreamStatus int   `json:"upstream_status,omitempty"`
	Cause          error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewDecodeError is returned when the uploaded bytes are not a readable raster image.
func NewDecodeError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeDecode,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// NewRateLimitedError reports an admission denied because the previous
// submission is too recent. retryAfter is the remaining wait.
func NewRateLimitedError(message string, retryAfter time.Duration) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimited,
		Message:    message,
		Details:    fmt.Sprintf("retry in %dms", retryAfter.Milliseconds()),
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

// NewAlreadyInFlightError reports an admission denied because a submission is running.
func NewAlreadyInFlightError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyInFlight,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewServiceError wraps a failure reported by the remote analysis service.
// upstreamStatus is 0 when the failure came from a 2xx body (success:false).
func NewServiceError(message string, upstreamStatus int, details string) *AppError {
	return &AppError{
		Type:           ErrorTypeService,
		Message:        message,
		Details:        details,
		StatusCode:     http.StatusBadGateway,
		UpstreamStatus: upstreamStatus,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeTimeout,
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Cause:      cause,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsType checks if the error (or anything it wraps) is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// As returns the AppError carried by err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}
