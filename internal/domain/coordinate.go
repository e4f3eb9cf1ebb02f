package domain

import (
	"fmt"
	"math"
)

// earthRadiusKm is the mean Earth radius used for display distances.
const earthRadiusKm = 6371.0

// Coordinate represents a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether c is a usable coordinate.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return fmt.Errorf("%w: non-finite value (%v, %v)", ErrInvalidCoordinate, c.Lat, c.Lng)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Lng)
	}
	return nil
}

// String formats the coordinate as "lat,lng", the order Google APIs expect.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Coordinate) float64 {
	const deg2rad = math.Pi / 180.0

	dLat := (b.Lat - a.Lat) * deg2rad
	dLng := (b.Lng - a.Lng) * deg2rad
	lat1 := a.Lat * deg2rad
	lat2 := b.Lat * deg2rad

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	// Rounding can push h just past 1 for near-antipodal points.
	h = math.Min(1, math.Max(0, h))
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DisplayDistanceKm returns the haversine distance rounded to one decimal place.
func DisplayDistanceKm(a, b Coordinate) float64 {
	return math.Round(Haversine(a, b)*10) / 10
}
