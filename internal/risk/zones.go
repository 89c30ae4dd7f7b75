package risk

import (
	"fmt"

	"github.com/safetrail/safetrail/internal/geo"
)

// Zone is a circular high-risk area. Radius is expressed in degrees.
type Zone struct {
	Name       string  `json:"name,omitempty" mapstructure:"name"`
	Latitude   float64 `json:"latitude" mapstructure:"latitude"`
	Longitude  float64 `json:"longitude" mapstructure:"longitude"`
	Radius     float64 `json:"radius" mapstructure:"radius"`
	RiskFactor float64 `json:"risk_factor" mapstructure:"risk_factor"`
}

// Distance returns the planar degree distance from the zone center.
//
// Zone radii are around two degrees, so the flat approximation is kept on
// purpose; use geo.Haversine for general distance reporting.
func (z Zone) Distance(lat, lng float64) float64 {
	return geo.PlanarDistance(lat, lng, z.Latitude, z.Longitude)
}

// Contains reports whether the point lies inside the zone or on its boundary.
// It is the single proximity predicate used by both scoring and explanation.
func (z Zone) Contains(lat, lng float64) bool {
	return z.Distance(lat, lng) <= z.Radius
}

// Falloff returns the zone's risk contribution at a point: the full risk
// factor at the center, decaying linearly to zero at the boundary.
func (z Zone) Falloff(lat, lng float64) float64 {
	d := z.Distance(lat, lng)
	if d > z.Radius {
		return 0
	}
	return z.RiskFactor * (1 - d/z.Radius)
}

// TimeProfile describes time-of-day risk windows.
//
// WeekendMultiplier and HolidayMultiplier are loaded and reported but are not
// applied by the scorer.
type TimeProfile struct {
	NightHours        []int   `json:"night_hours" mapstructure:"night_hours"`
	WeekendMultiplier float64 `json:"weekend_multiplier" mapstructure:"weekend_multiplier"`
	HolidayMultiplier float64 `json:"holiday_multiplier" mapstructure:"holiday_multiplier"`
}

// DefaultZones returns the built-in zone table.
func DefaultZones() []Zone {
	return []Zone{
		{Name: "Delhi", Latitude: 28.6139, Longitude: 77.2090, Radius: 2, RiskFactor: 0.8},
		{Name: "Mumbai", Latitude: 19.0760, Longitude: 72.8777, Radius: 2, RiskFactor: 0.7},
		{Name: "Bangalore", Latitude: 12.9716, Longitude: 77.5946, Radius: 2, RiskFactor: 0.6},
	}
}

// DefaultTimeProfile returns the built-in time profile (22:00 to 05:59 is night).
func DefaultTimeProfile() TimeProfile {
	return TimeProfile{
		NightHours:        []int{22, 23, 0, 1, 2, 3, 4, 5},
		WeekendMultiplier: 1.2,
		HolidayMultiplier: 1.3,
	}
}

// Registry is the immutable table of risk zones and time windows consulted
// at request time. Build it once at startup and share it freely; no method
// mutates it.
type Registry struct {
	zones   []Zone
	profile TimeProfile
	night   [24]bool
}

// NewRegistry validates and copies the given configuration.
func NewRegistry(zones []Zone, profile TimeProfile) (*Registry, error) {
	r := &Registry{
		zones: make([]Zone, len(zones)),
		profile: TimeProfile{
			NightHours:        make([]int, len(profile.NightHours)),
			WeekendMultiplier: profile.WeekendMultiplier,
			HolidayMultiplier: profile.HolidayMultiplier,
		},
	}

	for i, z := range zones {
		if !geo.ValidCoordinate(z.Latitude, z.Longitude) {
			return nil, fmt.Errorf("zone %d (%s): center out of range", i, z.Name)
		}
		if z.Radius <= 0 {
			return nil, fmt.Errorf("zone %d (%s): radius must be positive", i, z.Name)
		}
		if z.RiskFactor < 0 || z.RiskFactor > 1 {
			return nil, fmt.Errorf("zone %d (%s): risk_factor must be within [0,1]", i, z.Name)
		}
		r.zones[i] = z
	}

	for i, h := range profile.NightHours {
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("night hour %d out of range [0,23]", h)
		}
		r.profile.NightHours[i] = h
		r.night[h] = true
	}

	return r, nil
}

// DefaultRegistry returns a registry with the built-in zones and time profile.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultZones(), DefaultTimeProfile())
	if err != nil {
		panic("invalid default risk registry: " + err.Error())
	}
	return r
}

// Zones returns a copy of the configured zones.
func (r *Registry) Zones() []Zone {
	out := make([]Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// TimeProfile returns a copy of the configured time profile.
func (r *Registry) TimeProfile() TimeProfile {
	p := r.profile
	p.NightHours = make([]int, len(r.profile.NightHours))
	copy(p.NightHours, r.profile.NightHours)
	return p
}

// IsNightHour reports whether hour falls in a configured night window.
func (r *Registry) IsNightHour(hour int) bool {
	if hour < 0 || hour > 23 {
		return false
	}
	return r.night[hour]
}

// InAnyZone reports whether the point lies within any zone.
func (r *Registry) InAnyZone(lat, lng float64) bool {
	for _, z := range r.zones {
		if z.Contains(lat, lng) {
			return true
		}
	}
	return false
}

// MaxZoneRisk returns the highest falloff-weighted risk factor over all
// zones containing the point. Overlapping zones are not combined.
func (r *Registry) MaxZoneRisk(lat, lng float64) float64 {
	maxRisk := 0.0
	for _, z := range r.zones {
		if !z.Contains(lat, lng) {
			continue
		}
		if v := z.Falloff(lat, lng); v > maxRisk {
			maxRisk = v
		}
	}
	return maxRisk
}
