// Package geo provides great-circle distance math for donor/request proximity
// ranking.
package geo

import (
	"math"

	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
)

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Point is an optional geographic coordinate. Users are not required to share
// a location, so both fields are pointers; a Point is usable for distance math
// only when both are set.
type Point struct {
	Latitude  *float64
	Longitude *float64
}

// NewPoint builds a fully-populated Point.
func NewPoint(lat, lon float64) Point {
	return Point{Latitude: &lat, Longitude: &lon}
}

// HasCoordinates reports whether both latitude and longitude are present.
func (p Point) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Validate checks coordinate ranges. Partial points (one of the two set) are
// invalid; fully-absent points are fine.
//
// Errors: CodeInvalidInput on a partial point or out-of-range coordinate.
func (p Point) Validate() error {
	if p.Latitude == nil && p.Longitude == nil {
		return nil
	}
	if p.Latitude == nil || p.Longitude == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "latitude and longitude must be provided together")
	}
	if *p.Latitude < -90 || *p.Latitude > 90 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "latitude out of range: %v", *p.Latitude)
	}
	if *p.Longitude < -180 || *p.Longitude > 180 {
		return dErrors.Newf(dErrors.CodeInvalidInput, "longitude out of range: %v", *p.Longitude)
	}
	return nil
}

// DistanceKm computes the haversine great-circle distance between two points
// in kilometers. Returns (0, false) when either point lacks coordinates;
// callers treat unknown distance as "rank last", never as zero.
func DistanceKm(a, b Point) (float64, bool) {
	if !a.HasCoordinates() || !b.HasCoordinates() {
		return 0, false
	}

	lat1 := toRadians(*a.Latitude)
	lat2 := toRadians(*b.Latitude)
	dLat := toRadians(*b.Latitude - *a.Latitude)
	dLon := toRadians(*b.Longitude - *a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c, true
}

// RoundKm rounds a distance to one decimal place for presentation.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
