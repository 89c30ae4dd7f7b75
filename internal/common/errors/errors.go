// Package errors provides structured error handling for SafeTrail services
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorCode represents an application error code
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrBadRequest ErrorCode = "BAD_REQUEST"
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrRateLimit  ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Risk service errors
	ErrInvalidLocation ErrorCode = "INVALID_LOCATION"
	ErrInvalidTime     ErrorCode = "INVALID_TIME"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Err        error                  `json:"-"` // Original error for logging
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the original error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMetadata adds metadata to the error
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func wrap(err error, code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Internal creates an internal server error
func Internal(message string, err error) *AppError {
	return wrap(err, ErrInternal, message, http.StatusInternalServerError)
}

// NotFound creates a not found error for an unknown resource or route
func NotFound(resource string) *AppError {
	return New(ErrNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// BadRequest creates a bad request error
func BadRequest(message string) *AppError {
	return New(ErrBadRequest, message, http.StatusBadRequest)
}

// ValidationError creates a validation error
func ValidationError(message string) *AppError {
	return New(ErrValidation, message, http.StatusBadRequest)
}

// RateLimit creates a rate limit error
func RateLimit(message string) *AppError {
	return New(ErrRateLimit, message, http.StatusTooManyRequests)
}

// InvalidLocation reports coordinates outside the valid WGS84 range
func InvalidLocation(lat, lng float64) *AppError {
	return New(ErrInvalidLocation, "Coordinates out of range", http.StatusBadRequest).
		WithMetadata("latitude", lat).
		WithMetadata("longitude", lng)
}

// InvalidTime reports an hour or weekday override outside its range
func InvalidTime(field string, value int) *AppError {
	return New(ErrInvalidTime, fmt.Sprintf("%s out of range", field), http.StatusBadRequest).
		WithMetadata(field, value)
}

// ErrorResponse is the JSON response structure for errors
type ErrorResponse struct {
	Error     ErrorCode              `json:"error"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// HandleError sends an error response to the client
func HandleError(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal("An unexpected error occurred", err)
	}

	response := ErrorResponse{
		Error:     appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		Metadata:  appErr.Metadata,
		RequestID: c.GetString("request_id"),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	c.JSON(appErr.StatusCode, response)
}

// FromPanic converts a recovered panic value into an AppError
func FromPanic(r interface{}) *AppError {
	switch e := r.(type) {
	case *AppError:
		return e
	case error:
		return Internal("Internal server error", e)
	default:
		return Internal("Internal server error", fmt.Errorf("%v", r))
	}
}

// As extracts an AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
