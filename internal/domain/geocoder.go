package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
// A zero value means the provider found nothing.
type GeocodingResult struct {
	Coordinate       Coordinate
	FormattedAddress string
	PlaceID          string
	LocationType     string // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
}

// Empty reports whether the provider returned no match.
func (r GeocodingResult) Empty() bool {
	return r == GeocodingResult{}
}

// Geocoder converts between addresses and coordinates.
type Geocoder interface {
	// ForwardGeocode converts a free-text address to coordinates.
	ForwardGeocode(ctx context.Context, address string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details and a corrected coordinate.
	ReverseGeocode(ctx context.Context, c Coordinate) (GeocodingResult, error)
}
