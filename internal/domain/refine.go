package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// RefineCoordinate attempts to correct a device fix by reverse geocoding it.
// It never fails: if geocoder is nil or the lookup errors, returns nothing,
// or returns an unusable coordinate, the original fix is returned tagged as
// geolocation-api (graceful degradation).
func RefineCoordinate(ctx context.Context, c Coordinate, geocoder Geocoder, logger *slog.Logger) ResolvedLocation {
	raw := NewResolvedLocation(c, ProvenanceGeolocationAPI, "")
	if geocoder == nil {
		return raw
	}

	result, err := geocoder.ReverseGeocode(ctx, c)
	if err != nil {
		logger.Warn("reverse geocoding failed, keeping device fix",
			"lat", c.Lat,
			"lng", c.Lng,
			"error", err,
		)
		return raw
	}
	if result.Empty() {
		logger.Info("reverse geocoding returned no results, keeping device fix", "lat", c.Lat, "lng", c.Lng)
		return raw
	}
	if err := result.Coordinate.Validate(); err != nil {
		logger.Warn("reverse geocoding returned unusable coordinate, keeping device fix", "error", err)
		return raw
	}

	return NewResolvedLocation(result.Coordinate, ProvenanceGeocodeAPI, result.FormattedAddress)
}

// ResolveAddress forward geocodes a typed address. Unlike RefineCoordinate,
// failure is surfaced: every failure wraps ErrAddressNotFound.
func ResolveAddress(ctx context.Context, address string, geocoder Geocoder) (ResolvedLocation, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return ResolvedLocation{}, fmt.Errorf("%w: empty address", ErrAddressNotFound)
	}
	if geocoder == nil {
		return ResolvedLocation{}, fmt.Errorf("%w: no geocoder configured", ErrAddressNotFound)
	}

	result, err := geocoder.ForwardGeocode(ctx, address)
	if err != nil {
		return ResolvedLocation{}, fmt.Errorf("%w: %q: %w", ErrAddressNotFound, address, err)
	}
	if result.Empty() {
		return ResolvedLocation{}, fmt.Errorf("%w: %q", ErrAddressNotFound, address)
	}
	if err := result.Coordinate.Validate(); err != nil {
		return ResolvedLocation{}, fmt.Errorf("%w: %q: %w", ErrAddressNotFound, address, err)
	}

	description := result.FormattedAddress
	if description == "" {
		description = address
	}
	return NewResolvedLocation(result.Coordinate, ProvenanceManualInput, description), nil
}
