// Package validation provides input validation utilities for SafeTrail
package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (value: %s)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []*ValidationError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	switch len(e.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("validation failed with %d errors; first: %s", len(e.Errors), e.Errors[0])
	}
}

// Add adds a validation error
func (e *ValidationErrors) Add(field, message string, value ...string) {
	verr := &ValidationError{
		Field:   field,
		Message: message,
	}
	if len(value) > 0 {
		verr.Value = value[0]
	}
	e.Errors = append(e.Errors, verr)
}

// Append adds err, flattening ValidationErrors. Other error types are ignored.
func (e *ValidationErrors) Append(err error) {
	var verrs *ValidationErrors
	var verr *ValidationError
	switch {
	case errors.As(err, &verrs):
		e.Errors = append(e.Errors, verrs.Errors...)
	case errors.As(err, &verr):
		e.Errors = append(e.Errors, verr)
	}
}

// HasErrors returns true if there are validation errors
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Err returns e when it holds errors and nil otherwise
func (e *ValidationErrors) Err() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateRequired checks if a string is not empty
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// validateFloatRange checks if a float is within the inclusive range
func validateFloatRange(field string, value, min, max float64) error {
	if math.IsNaN(value) || value < min || value > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %g and %g", min, max),
			Value:   strconv.FormatFloat(value, 'g', -1, 64),
		}
	}
	return nil
}

// ValidateLatitude checks a WGS84 latitude
func ValidateLatitude(field string, value float64) error {
	return validateFloatRange(field, value, -90, 90)
}

// ValidateLongitude checks a WGS84 longitude
func ValidateLongitude(field string, value float64) error {
	return validateFloatRange(field, value, -180, 180)
}

// ValidatePositive checks if a number is positive
func ValidatePositive(field string, value int) error {
	if value <= 0 {
		return &ValidationError{
			Field:   field,
			Message: "must be positive",
			Value:   strconv.Itoa(value),
		}
	}
	return nil
}

// ValidateAll runs multiple validators and collects errors
func ValidateAll(validators ...func() error) error {
	errs := &ValidationErrors{}
	for _, validator := range validators {
		if err := validator(); err != nil {
			errs.Append(err)
		}
	}
	return errs.Err()
}
