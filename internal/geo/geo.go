// Package geo provides the distance and grid helpers shared by the risk
// scorer and the pattern analyzer.
package geo

import (
	"math"
	"strconv"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// PlanarDistance returns the Euclidean distance between two points measured
// directly in degrees. It is only meaningful for small separations and is the
// metric used for risk zone membership.
func PlanarDistance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := lat1 - lat2
	dLng := lng1 - lng2
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// Haversine returns the great-circle distance between two points in kilometers.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKm * c
}

// Round rounds v to the given number of decimal places. It rounds the exact
// binary value with ties to even, so 0.125 becomes 0.12 and 28.615 (stored as
// 28.61499...) becomes 28.61.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// Cell is a quantized coordinate pair.
type Cell struct {
	Lat float64
	Lng float64
}

// GridCell quantizes a point to a grid of the given decimal precision.
// Two decimals gives cells of roughly 1.1 km at the equator.
func GridCell(lat, lng float64, places int) Cell {
	return Cell{Lat: Round(lat, places), Lng: Round(lng, places)}
}

// ValidCoordinate reports whether lat/lng fall inside the WGS84 ranges.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
