package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
)

const nearbySearchURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// maxPlacesBody bounds how much of an upstream response the relay buffers.
const maxPlacesBody = 1 << 20

// NearbyResponse is an upstream Places Nearby Search response. Body is the
// raw JSON so the relay can forward it verbatim.
type NearbyResponse struct {
	Body         []byte
	Status       string
	ErrorMessage string
}

// PlacesClient calls the Google Places Nearby Search API.
type PlacesClient struct {
	apiKey     string
	radius     int
	placeType  string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewPlacesClient creates a Places client searching radiusMeters around a
// point for places of placeType.
func NewPlacesClient(apiKey string, radiusMeters int, placeType string, timeout time.Duration, logger *slog.Logger) *PlacesClient {
	return &PlacesClient{
		apiKey:     apiKey,
		radius:     radiusMeters,
		placeType:  placeType,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    nearbySearchURL,
		logger:     logger,
	}
}

// Configured reports whether the client has an API key.
func (p *PlacesClient) Configured() bool {
	return p.apiKey != ""
}

// CheckReadiness fails while no API key is configured.
func (p *PlacesClient) CheckReadiness(_ context.Context) error {
	if !p.Configured() {
		return errors.New("GOOGLE_MAPS_API_KEY is not configured")
	}
	return nil
}

// NearbySearch fetches places around c. Non-OK statuses in the body are not
// errors here; they are part of the response the relay forwards.
func (p *PlacesClient) NearbySearch(ctx context.Context, c domain.Coordinate) (NearbyResponse, error) {
	params := url.Values{
		"location": {c.String()},
		"radius":   {strconv.Itoa(p.radius)},
		"type":     {p.placeType},
		"key":      {p.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return NearbyResponse{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return NearbyResponse{}, fmt.Errorf("%w: nearby search request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlacesBody))
	if err != nil {
		return NearbyResponse{}, fmt.Errorf("%w: read nearby search response: %w", domain.ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return NearbyResponse{}, fmt.Errorf("%w: nearby search status %d: %s", domain.ErrUpstream, resp.StatusCode, body)
	}

	var envelope struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return NearbyResponse{}, fmt.Errorf("%w: decode nearby search response: %w", domain.ErrUpstream, err)
	}
	if envelope.Status != "OK" && envelope.Status != "ZERO_RESULTS" {
		p.logger.Warn("places nearby search returned non-OK status",
			"status", envelope.Status,
			"error_message", envelope.ErrorMessage,
		)
	}

	return NearbyResponse{Body: body, Status: envelope.Status, ErrorMessage: envelope.ErrorMessage}, nil
}
