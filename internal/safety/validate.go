package safety

import (
	"fmt"

	apperrors "github.com/safetrail/safetrail/internal/common/errors"
	"github.com/safetrail/safetrail/internal/common/validation"
	"github.com/safetrail/safetrail/internal/patterns"
)

// ValidateAlerts checks alerts loaded outside of HTTP, such as from a file.
// It is stricter than the request binding, which only requires the keys to be
// present: alert_type and location must be non-empty and coordinates must lie
// in the WGS84 ranges.
func ValidateAlerts(alerts []patterns.Alert) error {
	errs := &validation.ValidationErrors{}
	for i, a := range alerts {
		prefix := fmt.Sprintf("alerts[%d].", i)
		errs.Append(validation.ValidateAll(
			func() error { return validation.ValidateRequired(prefix+"alert_type", a.AlertType) },
			func() error { return validation.ValidateRequired(prefix+"location", a.Location) },
			func() error { return validation.ValidateLatitude(prefix+"latitude", a.Latitude) },
			func() error { return validation.ValidateLongitude(prefix+"longitude", a.Longitude) },
		))
	}
	if !errs.HasErrors() {
		return nil
	}

	appErr := apperrors.ValidationError(errs.Error())
	appErr.Err = errs
	return appErr.WithMetadata("fields", len(errs.Errors))
}
