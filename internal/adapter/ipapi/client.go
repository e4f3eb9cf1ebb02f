// Package ipapi resolves a coarse location from the caller's network origin
// using an ipapi.co style JSON endpoint.
package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

// Client implements domain.IPLocator.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an IP locator that GETs url with no parameters.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Locate returns the approximate coordinate of the caller's network origin.
func (c *Client) Locate(ctx context.Context) (domain.Coordinate, error) {
	coord, err := c.locate(ctx)
	if err != nil {
		c.metrics.IPLookups.WithLabelValues("error").Inc()
		c.logger.Warn("ip location lookup failed", "error", err)
		return domain.Coordinate{}, err
	}
	c.metrics.IPLookups.WithLabelValues("success").Inc()
	return coord, nil
}

func (c *Client) locate(ctx context.Context) (domain.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: create request: %w", domain.ErrServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Coordinate{}, fmt.Errorf("%w: status %d", domain.ErrServiceUnavailable, resp.StatusCode)
	}

	var lr lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: decode response: %w", domain.ErrServiceUnavailable, err)
	}

	if lr.Error {
		return domain.Coordinate{}, fmt.Errorf("%w: %s", domain.ErrNoLocationFound, lr.Reason)
	}
	if lr.Latitude == nil || lr.Longitude == nil {
		return domain.Coordinate{}, fmt.Errorf("%w: response has no coordinates", domain.ErrNoLocationFound)
	}

	coord := domain.Coordinate{Lat: *lr.Latitude, Lng: *lr.Longitude}
	if err := coord.Validate(); err != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: %w", domain.ErrNoLocationFound, err)
	}
	return coord, nil
}

// lookupResponse is the subset of the ipapi.co payload we read. Pointers
// distinguish a missing field from a legitimate zero.
type lookupResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}
