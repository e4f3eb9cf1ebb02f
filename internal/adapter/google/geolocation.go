package google

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
)

const geolocateURL = "https://www.googleapis.com/geolocation/v1/geolocate"

// Geolocator implements domain.Positioner using the Google Geolocation API.
// Without cell or Wi-Fi observations the API falls back to the request's
// network origin, which is the best a headless process can offer.
type Geolocator struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewGeolocator creates a Google geolocation positioner.
func NewGeolocator(apiKey string, logger *slog.Logger) *Geolocator {
	return &Geolocator{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		baseURL:    geolocateURL,
		logger:     logger,
	}
}

// CurrentPosition requests a fresh fix. HighAccuracy and MaxAge have no
// equivalent in the API; every call is a fresh lookup.
func (g *Geolocator) CurrentPosition(ctx context.Context, opts domain.PositionOptions) (domain.Coordinate, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(geolocateRequest{ConsiderIP: true})
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("marshal geolocate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		return domain.Coordinate{}, fmt.Errorf("%w: geolocate request: %w", domain.ErrUnsupported, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Coordinate{}, fmt.Errorf("%w: geolocate status %d: %s", domain.ErrPermissionDenied, resp.StatusCode, msg)
	default:
		return domain.Coordinate{}, fmt.Errorf("%w: geolocate status %d", domain.ErrUnsupported, resp.StatusCode)
	}

	var gr geolocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: decode geolocate response: %w", domain.ErrUnsupported, err)
	}

	c := domain.Coordinate{Lat: gr.Location.Lat, Lng: gr.Location.Lng}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrUnsupported, err)
	}

	g.logger.Debug("geolocate fix",
		"accuracy_m", gr.Accuracy,
		"duration", time.Since(start),
	)
	return c, nil
}

// Geolocation API types.

type geolocateRequest struct {
	ConsiderIP bool `json:"considerIp"`
}

type geolocateResponse struct {
	Location latLng  `json:"location"`
	Accuracy float64 `json:"accuracy"` // meters
}
