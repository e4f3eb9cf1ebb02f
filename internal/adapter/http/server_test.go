package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/nearby-hospitals/internal/adapter/http"
	"github.com/couchcryptid/nearby-hospitals/internal/adapter/google"
	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockPlaces struct {
	configured bool
	body       string
	err        error
	queries    []domain.Coordinate
}

func (m *mockPlaces) Configured() bool { return m.configured }

func (m *mockPlaces) NearbySearch(_ context.Context, c domain.Coordinate) (google.NearbyResponse, error) {
	m.queries = append(m.queries, c)
	if m.err != nil {
		return google.NearbyResponse{}, m.err
	}
	return google.NearbyResponse{Body: []byte(m.body), Status: "OK"}, nil
}

func newTestServer(places *mockPlaces, readyErr error) (*httpadapter.Server, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return httpadapter.NewServer(":0", places, &mockReadiness{err: readyErr}, metrics, logger), metrics
}

func serve(srv http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(&mockPlaces{}, nil)
	rec := serve(srv, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(&mockPlaces{}, nil)
	rec := serve(srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeBody(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(&mockPlaces{}, fmt.Errorf("GOOGLE_MAPS_API_KEY is not configured"))
	rec := serve(srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "GOOGLE_MAPS_API_KEY is not configured", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(&mockPlaces{}, nil)
	rec := serve(srv, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- relay ---

func TestHospitals_ForwardsUpstreamBody(t *testing.T) {
	const upstream = `{"status":"OK","results":[{"place_id":"p1","name":"General"}],"html_attributions":[]}`
	places := &mockPlaces{configured: true, body: upstream}
	srv, metrics := newTestServer(places, nil)

	rec := serve(srv, "/api/hospitals?lat=40.7128&lng=-74.006")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, upstream, rec.Body.String())
	assert.Equal(t, []domain.Coordinate{{Lat: 40.7128, Lng: -74.006}}, places.queries)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RelayRequests.WithLabelValues("200")), 0.0001)
}

func TestHospitals_ForwardsDeniedStatusVerbatim(t *testing.T) {
	const upstream = `{"status":"REQUEST_DENIED","error_message":"The provided API key is invalid.","results":[]}`
	srv, _ := newTestServer(&mockPlaces{configured: true, body: upstream}, nil)

	rec := serve(srv, "/api/hospitals?lat=1&lng=2")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, upstream, rec.Body.String())
}

func TestHospitals_BadCoordinates(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "missing both", query: ""},
		{name: "missing lng", query: "?lat=40"},
		{name: "missing lat", query: "?lng=-75"},
		{name: "non-numeric", query: "?lat=abc&lng=-75"},
		{name: "out of range", query: "?lat=100&lng=-75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			places := &mockPlaces{configured: true}
			srv, metrics := newTestServer(places, nil)

			rec := serve(srv, "/api/hospitals"+tt.query)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Latitude and longitude are required", decodeBody(t, rec)["error"])
			assert.Empty(t, places.queries)
			assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RelayRequests.WithLabelValues("400")), 0.0001)
		})
	}
}

func TestHospitals_MissingKey(t *testing.T) {
	places := &mockPlaces{configured: false}
	srv, _ := newTestServer(places, nil)

	rec := serve(srv, "/api/hospitals?lat=40&lng=-75")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Google Maps API key is not configured", decodeBody(t, rec)["error"])
	assert.Empty(t, places.queries)
}

func TestHospitals_UpstreamFailure(t *testing.T) {
	srv, metrics := newTestServer(&mockPlaces{configured: true, err: errors.New("dial tcp: connection refused")}, nil)

	rec := serve(srv, "/api/hospitals?lat=40&lng=-75")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch nearby hospitals", decodeBody(t, rec)["error"])
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.RelayRequests.WithLabelValues("500")), 0.0001)
}

func TestHospitals_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(&mockPlaces{configured: true}, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/hospitals?lat=1&lng=1", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
