package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/couchcryptid/nearby-hospitals/internal/adapter/device"
	"github.com/couchcryptid/nearby-hospitals/internal/adapter/google"
	"github.com/couchcryptid/nearby-hospitals/internal/adapter/ipapi"
	"github.com/couchcryptid/nearby-hospitals/internal/adapter/relay"
	"github.com/couchcryptid/nearby-hospitals/internal/config"
	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
	"github.com/couchcryptid/nearby-hospitals/internal/view"
)

// app is the wired resolution pipeline for one CLI invocation.
type app struct {
	logger         *slog.Logger
	resolver       *resolver.Resolver
	presenter      *view.Presenter
	requireConfirm bool

	// outMu serializes output; resolver listeners run on whichever
	// goroutine committed the change.
	outMu sync.Mutex
}

// newApp wires adapters from configuration. A non-nil fix replaces the
// configured positioner.
func newApp(fix *domain.Coordinate) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	metrics := observability.NewMetrics()

	var geocoder domain.Geocoder
	if cfg.APIKeyConfigured() {
		metrics.APIKeyPresent.Set(1)
		client := google.NewGeocoder(cfg.GoogleAPIKey, cfg.GoogleTimeout, metrics, logger)
		geocoder = google.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
	}

	return assemble(resolver.Dependencies{
		Source:   resolver.NewGeoSource(positioner(cfg, fix, logger), metrics, logger),
		IP:       ipapi.NewClient(cfg.IPLocatorURL, cfg.GoogleTimeout, metrics, logger),
		Geocoder: geocoder,
		Searcher: relay.NewClient(cfg.RelayURL, cfg.GoogleTimeout, metrics, logger),
		Metrics:  metrics,
		Logger:   logger,
	}, resolver.Options{
		RequireConfirm:     cfg.RequireOverrideConfirm,
		GeolocationTimeout: cfg.GeolocationTimeout,
		MissingAPIKey:      !cfg.APIKeyConfigured(),
	}), nil
}

func assemble(deps resolver.Dependencies, opts resolver.Options) *app {
	res := resolver.New(deps, opts)
	presenter := view.NewPresenter()
	res.OnChange(presenter.Apply)

	return &app{
		logger:         deps.Logger,
		resolver:       res,
		presenter:      presenter,
		requireConfirm: opts.RequireConfirm,
	}
}

func positioner(cfg *config.Config, fix *domain.Coordinate, logger *slog.Logger) domain.Positioner {
	switch {
	case fix != nil:
		return device.Static{Coordinate: *fix}
	case cfg.Positioning == config.PositioningGoogle && cfg.APIKeyConfigured():
		return google.NewGeolocator(cfg.GoogleAPIKey, logger)
	default:
		return device.Unsupported{}
	}
}

// settle turns a resolver result into the CLI's error contract: a
// misconfiguration or failed outcome is an error, anything else is printed.
func (a *app) settle(out resolver.Outcome, err error) error {
	if errors.Is(err, domain.ErrMisconfiguredKey) {
		if f := a.resolver.Snapshot().Failure; f != nil {
			return f
		}
		return err
	}
	if err != nil {
		return err
	}
	if f, ok := out.Failed(); ok {
		return f
	}
	return nil
}

func (a *app) start(ctx context.Context) error {
	return a.settle(a.resolver.Start(ctx))
}
