package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeolocator(baseURL string) *Geolocator {
	g := NewGeolocator(testKey, testLogger())
	g.baseURL = baseURL
	return g
}

func TestGeolocator_CurrentPosition_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, testKey, r.URL.Query().Get("key"))

		var req geolocateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.ConsiderIP)

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"location":{"lat":40.0,"lng":-75.0},"accuracy":1200}`))
	}))
	defer srv.Close()

	c, err := testGeolocator(srv.URL).CurrentPosition(context.Background(), domain.PositionOptions{Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lat: 40, Lng: -75}, c)
}

func TestGeolocator_CurrentPosition_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "forbidden",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusForbidden) },
			want:    domain.ErrPermissionDenied,
		},
		{
			name:    "bad request",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadRequest) },
			want:    domain.ErrPermissionDenied,
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			want:    domain.ErrUnsupported,
		},
		{
			name: "out of range coordinate",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"location":{"lat":123,"lng":0}}`))
			},
			want: domain.ErrUnsupported,
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{`)) },
			want:    domain.ErrUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := testGeolocator(srv.URL).CurrentPosition(context.Background(), domain.PositionOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGeolocator_CurrentPosition_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := testGeolocator(srv.URL).CurrentPosition(context.Background(), domain.PositionOptions{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
