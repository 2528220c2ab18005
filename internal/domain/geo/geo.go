// Package geo provides coordinate validation and great-circle distance.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Point is a geographic coordinate pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewPoint validates the coordinate ranges and creates a Point.
func NewPoint(lat, lon float64) (Point, error) {
	if lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("latitude must be in [-90, 90], got %g", lat)
	}
	if lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("longitude must be in [-180, 180], got %g", lon)
	}
	return Point{Latitude: lat, Longitude: lon}, nil
}

// Valid reports whether the point's coordinates are within range.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceMeters returns the great-circle (Haversine) distance to q in meters.
func (p Point) DistanceMeters(q Point) float64 {
	lat1r := p.Latitude * math.Pi / 180
	lat2r := q.Latitude * math.Pi / 180
	dLat := (q.Latitude - p.Latitude) * math.Pi / 180
	dLon := (q.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}
