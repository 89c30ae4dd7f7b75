package validation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
	}{
		{"Valid value", "theft", false},
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired("alert_type", tt.value)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "alert_type: is required")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLatitude_Message(t *testing.T) {
	err := ValidateLatitude("latitude", 91)
	require.Error(t, err)
	assert.Equal(t, "latitude: must be between -90 and 90 (value: 91)", err.Error())
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name        string
		lat, lng    float64
		expectError bool
	}{
		{"Origin", 0, 0, false},
		{"Poles and antimeridian", 90, -180, false},
		{"Latitude too high", 90.5, 0, true},
		{"Longitude too low", 0, -180.01, true},
		{"NaN latitude", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAll(
				func() error { return ValidateLatitude("latitude", tt.lat) },
				func() error { return ValidateLongitude("longitude", tt.lng) },
			)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePositive(t *testing.T) {
	assert.NoError(t, ValidatePositive("samples", 1))
	assert.Error(t, ValidatePositive("samples", 0))
	assert.Error(t, ValidatePositive("samples", -3))
}

func TestValidateAll_CollectsErrors(t *testing.T) {
	err := ValidateAll(
		func() error { return ValidateRequired("alert_type", "") },
		func() error { return nil },
		func() error { return ValidateLatitude("latitude", 100) },
	)
	require.Error(t, err)

	var verrs *ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs.Errors, 2)
	assert.Equal(t, "alert_type", verrs.Errors[0].Field)
	assert.Equal(t, "latitude", verrs.Errors[1].Field)
	assert.Contains(t, err.Error(), "validation failed with 2 errors")
}

func TestValidationErrors_AppendFlattens(t *testing.T) {
	inner := &ValidationErrors{}
	inner.Add("a", "bad")
	inner.Add("b", "bad", "x")

	outer := &ValidationErrors{}
	outer.Append(inner)
	outer.Append(&ValidationError{Field: "c", Message: "bad"})
	outer.Append(assert.AnError)

	assert.Len(t, outer.Errors, 3)
	assert.Equal(t, "x", outer.Errors[1].Value)
}

func TestValidateAll_NoErrors(t *testing.T) {
	assert.NoError(t, ValidateAll())
	assert.Nil(t, (&ValidationErrors{}).Err())
}
