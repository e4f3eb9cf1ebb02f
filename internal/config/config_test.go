package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "AIza-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.GoogleAPIKey)
	assert.False(t, cfg.APIKeyConfigured())
	assert.Equal(t, 5*time.Second, cfg.GoogleTimeout)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.Equal(t, 15*time.Second, cfg.GeolocationTimeout)
	assert.Equal(t, PositioningGoogle, cfg.Positioning)
	assert.Equal(t, "https://ipapi.co/json/", cfg.IPLocatorURL)
	assert.False(t, cfg.RequireOverrideConfirm)
	assert.Equal(t, "http://localhost:3001", cfg.RelayURL)
	assert.Equal(t, 5000, cfg.PlacesRadiusMeters)
	assert.Equal(t, "hospital", cfg.PlacesType)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("GOOGLE_MAPS_API_KEY", "  "+testAPIKey+" ")
	t.Setenv("GOOGLE_TIMEOUT", "2s")
	t.Setenv("GEOCODE_CACHE_SIZE", "50")
	t.Setenv("GEOLOCATION_TIMEOUT", "8s")
	t.Setenv("POSITIONING", "None")
	t.Setenv("IP_LOCATOR_URL", "http://ip.local/json")
	t.Setenv("REQUIRE_OVERRIDE_CONFIRM", "true")
	t.Setenv("RELAY_URL", "http://relay.local")
	t.Setenv("PLACES_RADIUS_METERS", "2500")
	t.Setenv("PLACES_TYPE", "doctor")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, testAPIKey, cfg.GoogleAPIKey)
	assert.True(t, cfg.APIKeyConfigured())
	assert.Equal(t, 2*time.Second, cfg.GoogleTimeout)
	assert.Equal(t, 50, cfg.GeocodeCacheSize)
	assert.Equal(t, 8*time.Second, cfg.GeolocationTimeout)
	assert.Equal(t, PositioningNone, cfg.Positioning)
	assert.Equal(t, "http://ip.local/json", cfg.IPLocatorURL)
	assert.True(t, cfg.RequireOverrideConfirm)
	assert.Equal(t, "http://relay.local", cfg.RelayURL)
	assert.Equal(t, 2500, cfg.PlacesRadiusMeters)
	assert.Equal(t, "doctor", cfg.PlacesType)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_UnparsableDuration(t *testing.T) {
	t.Setenv("GOOGLE_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_NonPositiveGeolocationTimeout(t *testing.T) {
	t.Setenv("GEOLOCATION_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOLOCATION_TIMEOUT")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("GEOCODE_CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODE_CACHE_SIZE")
}

func TestLoad_RadiusOutOfRange(t *testing.T) {
	t.Setenv("PLACES_RADIUS_METERS", "60000")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLACES_RADIUS_METERS")
}

func TestLoad_UnknownPositioning(t *testing.T) {
	t.Setenv("POSITIONING", "gps")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSITIONING")
}
