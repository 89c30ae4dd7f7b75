package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/common/validation"
	"github.com/safetrail/safetrail/internal/patterns"
)

func TestValidateAlerts(t *testing.T) {
	assert.NoError(t, ValidateAlerts(nil))
	assert.NoError(t, ValidateAlerts(alertsAt(delhi, 2)))

	bad := alertsAt(delhi, 2)
	bad[1].AlertType = ""
	bad[1].Latitude = 120

	err := ValidateAlerts(bad)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)

	var verrs *validation.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs.Errors, 2)
	assert.Equal(t, "alerts[1].alert_type", verrs.Errors[0].Field)
	assert.Equal(t, "alerts[1].latitude", verrs.Errors[1].Field)
}

func TestValidateAlerts_MissingLocation(t *testing.T) {
	err := ValidateAlerts([]patterns.Alert{{TouristID: 1, AlertType: "panic"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alerts[0].location: is required")
}
