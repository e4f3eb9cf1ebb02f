package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _ Coordinate) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var deviceFix = Coordinate{Lat: 40.0, Lng: -75.0}

// --- RefineCoordinate ---

func TestRefineCoordinate_Corrected(t *testing.T) {
	frozen := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(frozen)
	t.Cleanup(func() { SetClock(nil) })

	geo := &mockGeocoder{
		reverseResult: GeocodingResult{
			Coordinate:       Coordinate{Lat: 40.01, Lng: -75.01},
			FormattedAddress: "1 Market St, Philadelphia, PA",
		},
	}

	loc := RefineCoordinate(context.Background(), deviceFix, geo, discardLogger())

	assert.Equal(t, Coordinate{Lat: 40.01, Lng: -75.01}, loc.Coordinate)
	assert.Equal(t, TierHigh, loc.Tier)
	assert.Equal(t, ProvenanceGeocodeAPI, loc.Provenance)
	assert.Equal(t, "1 Market St, Philadelphia, PA", loc.Description)
	assert.Equal(t, frozen.Now(), loc.ResolvedAt)
	assert.Equal(t, 1, geo.reverseCalls)
	assert.Equal(t, 0, geo.forwardCalls)
}

func TestRefineCoordinate_NeverFails(t *testing.T) {
	tests := []struct {
		name string
		geo  Geocoder
	}{
		{name: "nil geocoder", geo: nil},
		{name: "network error", geo: &mockGeocoder{reverseErr: errors.New("dial tcp: connection refused")}},
		{name: "empty result", geo: &mockGeocoder{}},
		{name: "quota", geo: &mockGeocoder{reverseErr: &APIError{Service: "geocode", Status: "OVER_QUERY_LIMIT"}}},
		{name: "bad coordinate", geo: &mockGeocoder{reverseResult: GeocodingResult{
			Coordinate:       Coordinate{Lat: math.NaN(), Lng: 10},
			FormattedAddress: "nowhere",
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := RefineCoordinate(context.Background(), deviceFix, tt.geo, discardLogger())

			require.NoError(t, loc.Coordinate.Validate())
			assert.Equal(t, deviceFix, loc.Coordinate)
			assert.Equal(t, TierMedium, loc.Tier)
			assert.Equal(t, ProvenanceGeolocationAPI, loc.Provenance)
		})
	}
}

// --- ResolveAddress ---

func TestResolveAddress_Success(t *testing.T) {
	geo := &mockGeocoder{
		forwardResult: GeocodingResult{
			Coordinate:       Coordinate{Lat: 34.09, Lng: -118.41},
			FormattedAddress: "Beverly Hills, CA 90210, USA",
		},
	}

	loc, err := ResolveAddress(context.Background(), "  90210 ", geo)
	require.NoError(t, err)

	assert.Equal(t, Coordinate{Lat: 34.09, Lng: -118.41}, loc.Coordinate)
	assert.Equal(t, TierHigh, loc.Tier)
	assert.Equal(t, ProvenanceManualInput, loc.Provenance)
	assert.Equal(t, "Beverly Hills, CA 90210, USA", loc.Description)
	assert.Equal(t, 1, geo.forwardCalls)
}

func TestResolveAddress_FallsBackToInputDescription(t *testing.T) {
	geo := &mockGeocoder{forwardResult: GeocodingResult{Coordinate: Coordinate{Lat: 1, Lng: 2}}}

	loc, err := ResolveAddress(context.Background(), "somewhere", geo)
	require.NoError(t, err)
	assert.Equal(t, "somewhere", loc.Description)
}

func TestResolveAddress_Failures(t *testing.T) {
	tests := []struct {
		name    string
		address string
		geo     *mockGeocoder
		calls   int
	}{
		{name: "blank input", address: "   ", geo: &mockGeocoder{}, calls: 0},
		{name: "no match", address: "zzzz", geo: &mockGeocoder{}, calls: 1},
		{name: "backend error", address: "90210", geo: &mockGeocoder{forwardErr: errors.New("timeout")}, calls: 1},
		{name: "denied", address: "90210", geo: &mockGeocoder{forwardErr: &APIError{Service: "geocode", Status: "REQUEST_DENIED"}}, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveAddress(context.Background(), tt.address, tt.geo)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAddressNotFound)
			assert.Equal(t, tt.calls, tt.geo.forwardCalls)
		})
	}
}

func TestResolveAddress_KeepsCause(t *testing.T) {
	geo := &mockGeocoder{forwardErr: &APIError{Service: "geocode", Status: "REQUEST_DENIED", Message: "key expired"}}

	_, err := ResolveAddress(context.Background(), "90210", geo)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAddressNotFound)
	assert.ErrorIs(t, err, ErrMisconfiguredKey)
	assert.Contains(t, err.Error(), "key expired")
}
