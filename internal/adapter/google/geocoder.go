package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

const geocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder implements domain.Geocoder using the Google Geocoding API.
type Geocoder struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGeocoder creates a Google geocoding client.
func NewGeocoder(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Geocoder {
	return &Geocoder{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: geocodeURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a free-text address to coordinates.
func (g *Geocoder) ForwardGeocode(ctx context.Context, address string) (domain.GeocodingResult, error) {
	params := url.Values{
		"address": {address},
		"key":     {g.apiKey},
	}
	return g.doRequest(ctx, params, "forward")
}

// ReverseGeocode converts coordinates to place details. The first result's
// geometry is the corrected coordinate.
func (g *Geocoder) ReverseGeocode(ctx context.Context, c domain.Coordinate) (domain.GeocodingResult, error) {
	params := url.Values{
		"latlng": {c.String()},
		"key":    {g.apiKey},
	}
	return g.doRequest(ctx, params, "reverse")
}

func (g *Geocoder) doRequest(ctx context.Context, params url.Values, method string) (domain.GeocodingResult, error) {
	start := time.Now()
	result, err := g.fetch(ctx, g.baseURL+"?"+params.Encode(), method)
	g.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		g.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
	case result.Empty():
		g.metrics.GeocodeRequests.WithLabelValues(method, "empty").Inc()
	default:
		g.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()
	}
	return result, err
}

func (g *Geocoder) fetch(ctx context.Context, fullURL, method string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.GeocodingResult{}, fmt.Errorf("%w: geocode status %d: %s", domain.ErrUpstream, resp.StatusCode, body)
	}

	var gr geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("%w: decode geocode response: %w", domain.ErrUpstream, err)
	}

	switch gr.Status {
	case "OK":
	case "ZERO_RESULTS":
		return domain.GeocodingResult{}, nil
	default:
		return domain.GeocodingResult{}, &domain.APIError{Service: "geocode", Status: gr.Status, Message: gr.ErrorMessage}
	}

	if len(gr.Results) == 0 {
		return domain.GeocodingResult{}, nil
	}

	r := gr.Results[0]
	g.logger.Debug("geocode hit",
		"method", method,
		"place_id", r.PlaceID,
		"location_type", r.Geometry.LocationType,
	)
	return domain.GeocodingResult{
		Coordinate:       domain.Coordinate{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
		FormattedAddress: r.FormattedAddress,
		PlaceID:          r.PlaceID,
		LocationType:     r.Geometry.LocationType,
	}, nil
}

// Geocoding API response types.

type geocodeResponse struct {
	Status       string          `json:"status"` // OK, ZERO_RESULTS, REQUEST_DENIED, ...
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	PlaceID          string   `json:"place_id"`
	Geometry         geometry `json:"geometry"`
}

type geometry struct {
	Location     latLng `json:"location"`
	LocationType string `json:"location_type,omitempty"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
