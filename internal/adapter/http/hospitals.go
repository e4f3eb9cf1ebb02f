package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/nearby-hospitals/internal/adapter/google"
	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

// Relay error bodies. Clients match on these strings.
const (
	errMissingCoordinates = "Latitude and longitude are required"
	errKeyNotConfigured   = "Google Maps API key is not configured"
	errUpstreamFailed     = "Failed to fetch nearby hospitals"
)

// PlacesSearcher runs a nearby search upstream. *google.PlacesClient implements it.
type PlacesSearcher interface {
	Configured() bool
	NearbySearch(ctx context.Context, c domain.Coordinate) (google.NearbyResponse, error)
}

// handleHospitals proxies GET /api/hospitals?lat=&lng= to the Places API and
// returns the upstream body verbatim.
func handleHospitals(places PlacesSearcher, metrics *observability.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := relayHospitals(w, r, places, logger)
		metrics.RelayRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	}
}

func relayHospitals(w http.ResponseWriter, r *http.Request, places PlacesSearcher, logger *slog.Logger) int {
	c, ok := parseCoordinate(r)
	if !ok {
		return writeError(w, http.StatusBadRequest, errMissingCoordinates)
	}
	if !places.Configured() {
		logger.Error("hospital search requested without an API key")
		return writeError(w, http.StatusInternalServerError, errKeyNotConfigured)
	}

	resp, err := places.NearbySearch(r.Context(), c)
	if err != nil {
		logger.Error("fetching nearby hospitals", "error", err, "coordinate", c.String())
		return writeError(w, http.StatusInternalServerError, errUpstreamFailed)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Body)
	return http.StatusOK
}

func parseCoordinate(r *http.Request) (domain.Coordinate, bool) {
	q := r.URL.Query()
	latStr, lngStr := q.Get("lat"), q.Get("lng")
	if latStr == "" || lngStr == "" {
		return domain.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return domain.Coordinate{}, false
	}
	c := domain.Coordinate{Lat: lat, Lng: lng}
	if c.Validate() != nil {
		return domain.Coordinate{}, false
	}
	return c, true
}

func writeError(w http.ResponseWriter, status int, msg string) int {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
	return status
}
