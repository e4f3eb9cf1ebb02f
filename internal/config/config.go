package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Positioning providers selectable via POSITIONING.
const (
	PositioningGoogle = "google"
	PositioningNone   = "none"
)

// Config holds all settings, populated from environment variables.
type Config struct {
	HTTPAddr        string `env:"HTTP_ADDR" envDefault:":3001"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration

	// Google Maps Platform. The key is shared by geocoding, geolocation and places.
	GoogleAPIKey     string        `env:"GOOGLE_MAPS_API_KEY"`
	GoogleTimeout    time.Duration `env:"GOOGLE_TIMEOUT" envDefault:"5s"`
	GeocodeCacheSize int           `env:"GEOCODE_CACHE_SIZE" envDefault:"1000"`

	// Resolution pipeline.
	GeolocationTimeout     time.Duration `env:"GEOLOCATION_TIMEOUT" envDefault:"15s"`
	Positioning            string        `env:"POSITIONING" envDefault:"google"`
	IPLocatorURL           string        `env:"IP_LOCATOR_URL" envDefault:"https://ipapi.co/json/"`
	RequireOverrideConfirm bool          `env:"REQUIRE_OVERRIDE_CONFIRM" envDefault:"false"`

	// Hospital search relay.
	RelayURL           string `env:"RELAY_URL" envDefault:"http://localhost:3001"`
	PlacesRadiusMeters int    `env:"PLACES_RADIUS_METERS" envDefault:"5000"`
	PlacesType         string `env:"PLACES_TYPE" envDefault:"hospital"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// A missing GOOGLE_MAPS_API_KEY is not an error here; callers surface it as
// a configuration failure of the pipeline or relay.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = shutdownTimeout
	cfg.GoogleAPIKey = strings.TrimSpace(cfg.GoogleAPIKey)
	cfg.Positioning = strings.ToLower(strings.TrimSpace(cfg.Positioning))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIKeyConfigured reports whether the Google Maps API key is present.
func (c *Config) APIKeyConfigured() bool {
	return c.GoogleAPIKey != ""
}

func (c *Config) validate() error {
	if c.GoogleTimeout <= 0 {
		return errors.New("invalid GOOGLE_TIMEOUT")
	}
	if c.GeolocationTimeout <= 0 {
		return errors.New("invalid GEOLOCATION_TIMEOUT")
	}
	if c.GeocodeCacheSize <= 0 {
		return errors.New("invalid GEOCODE_CACHE_SIZE")
	}
	if c.PlacesRadiusMeters <= 0 || c.PlacesRadiusMeters > 50000 {
		return errors.New("PLACES_RADIUS_METERS must be between 1 and 50000")
	}
	if c.IPLocatorURL == "" {
		return errors.New("IP_LOCATOR_URL is required")
	}
	if c.RelayURL == "" {
		return errors.New("RELAY_URL is required")
	}
	switch c.Positioning {
	case PositioningGoogle, PositioningNone:
	default:
		return fmt.Errorf("unknown POSITIONING %q", c.Positioning)
	}
	return nil
}
