// Package relay is the HospitalSearchClient: it asks the hospital search
// relay for facilities near a coordinate.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

const searchPath = "/api/hospitals"

// Client implements domain.FacilitySearcher against the relay.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a relay client rooted at baseURL (scheme://host[:port]).
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Search returns up to domain.MaxFacilities facilities in relay order.
func (c *Client) Search(ctx context.Context, coord domain.Coordinate) ([]domain.Facility, error) {
	facilities, err := c.search(ctx, coord)
	switch {
	case err != nil:
		c.metrics.SearchRequests.WithLabelValues("error").Inc()
		c.logger.Warn("facility search failed", "coordinate", coord.String(), "error", err)
		return nil, err
	case len(facilities) == 0:
		c.metrics.SearchRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.SearchRequests.WithLabelValues("success").Inc()
	}
	c.metrics.SearchResults.Observe(float64(len(facilities)))
	return facilities, nil
}

func (c *Client) search(ctx context.Context, coord domain.Coordinate) ([]domain.Facility, error) {
	params := url.Values{
		"lat": {strconv.FormatFloat(coord.Lat, 'f', -1, 64)},
		"lng": {strconv.FormatFloat(coord.Lng, 'f', -1, 64)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: relay request: %w", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read relay response: %w", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var re relayError
		_ = json.Unmarshal(body, &re)
		if re.Error == "" {
			re.Error = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: relay status %d: %s", domain.ErrUpstream, resp.StatusCode, re.Error)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: decode relay response: %w", domain.ErrUpstream, err)
	}

	switch sr.Status {
	case "OK", "ZERO_RESULTS", "":
	default:
		return nil, &domain.APIError{Service: "places", Status: sr.Status, Message: sr.ErrorMessage}
	}

	results := sr.Results
	if len(results) > domain.MaxFacilities {
		results = results[:domain.MaxFacilities]
	}
	facilities := make([]domain.Facility, 0, len(results))
	for _, p := range results {
		facilities = append(facilities, p.toFacility())
	}
	return facilities, nil
}

// Wire types: the relay forwards the Places Nearby Search body verbatim.

type relayError struct {
	Error string `json:"error"`
}

type searchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []place `json:"results"`
}

type place struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Vicinity string   `json:"vicinity"`
	Rating   *float64 `json:"rating,omitempty"`
	Types    []string `json:"types"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func (p place) toFacility() domain.Facility {
	return domain.Facility{
		ID:         p.PlaceID,
		Name:       p.Name,
		Address:    p.Vicinity,
		Coordinate: domain.Coordinate{Lat: p.Geometry.Location.Lat, Lng: p.Geometry.Location.Lng},
		Rating:     p.Rating,
		Category:   domain.CategoryFromTypes(p.Types),
	}
}
