package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "Error without details",
			err:      &AppError{Code: ErrBadRequest, Message: "Invalid request"},
			expected: "[BAD_REQUEST] Invalid request",
		},
		{
			name:     "Error with details",
			err:      &AppError{Code: ErrValidation, Message: "Invalid request", Details: "latitude is required"},
			expected: "[VALIDATION_ERROR] Invalid request: latitude is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	originalErr := errors.New("division by zero")
	err := Internal("Error predicting risk", originalErr)

	assert.Equal(t, ErrInternal, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.ErrorIs(t, err, originalErr)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            *AppError
		expectedCode   ErrorCode
		expectedStatus int
	}{
		{"Internal", Internal("System error", nil), ErrInternal, http.StatusInternalServerError},
		{"NotFound", NotFound("Zone"), ErrNotFound, http.StatusNotFound},
		{"BadRequest", BadRequest("Invalid input"), ErrBadRequest, http.StatusBadRequest},
		{"ValidationError", ValidationError("Validation failed"), ErrValidation, http.StatusBadRequest},
		{"RateLimit", RateLimit("Too many requests"), ErrRateLimit, http.StatusTooManyRequests},
		{"InvalidLocation", InvalidLocation(91, 0), ErrInvalidLocation, http.StatusBadRequest},
		{"InvalidTime", InvalidTime("hour", 24), ErrInvalidTime, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, tt.err.Code)
			assert.Equal(t, tt.expectedStatus, tt.err.StatusCode)
		})
	}
}

func TestDomainErrorMetadata(t *testing.T) {
	err := InvalidLocation(95.5, 200)
	assert.Equal(t, 95.5, err.Metadata["latitude"])
	assert.Equal(t, 200.0, err.Metadata["longitude"])

	err = InvalidTime("day_of_week", 9)
	assert.Equal(t, "day_of_week out of range", err.Message)
	assert.Equal(t, 9, err.Metadata["day_of_week"])
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", RateLimit("slow down"))
	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrRateLimit, appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, GetStatusCode(wrapped))

	_, ok = As(errors.New("standard error"))
	assert.False(t, ok)
}

func TestWithDetails(t *testing.T) {
	err := ValidationError("Invalid request body").WithDetails("latitude is required")
	assert.Equal(t, "[VALIDATION_ERROR] Invalid request body: latitude is required", err.Error())
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, GetStatusCode(BadRequest("Invalid input")))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("standard error")))
}

func TestFromPanic(t *testing.T) {
	appErr := ValidationError("bad")
	assert.Same(t, appErr, FromPanic(appErr))

	err := FromPanic(errors.New("boom"))
	assert.Equal(t, ErrInternal, err.Code)
	assert.EqualError(t, err.Err, "boom")

	err = FromPanic("string panic")
	assert.Equal(t, ErrInternal, err.Code)
	assert.EqualError(t, err.Err, "string panic")
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("AppError envelope", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Set("request_id", "req-42")

		HandleError(c, InvalidTime("hour", 25))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, ErrInvalidTime, resp.Error)
		assert.Equal(t, "req-42", resp.RequestID)
		assert.NotEmpty(t, resp.Timestamp)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleError(c, errors.New("leak"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "leak")
	})
}

func BenchmarkWrapError(b *testing.B) {
	originalErr := errors.New("original error")
	for i := 0; i < b.N; i++ {
		_ = Internal("Wrapped error", originalErr)
	}
}
