package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/nearby-hospitals/internal/adapter/google"
	httpadapter "github.com/couchcryptid/nearby-hospitals/internal/adapter/http"
	"github.com/couchcryptid/nearby-hospitals/internal/config"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	metrics := observability.NewMetrics()

	if cfg.APIKeyConfigured() {
		metrics.APIKeyPresent.Set(1)
		logger.Info("google maps api key configured", "key_length", len(cfg.GoogleAPIKey))
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY is missing; hospital searches will fail until it is set")
	}

	places := google.NewPlacesClient(cfg.GoogleAPIKey, cfg.PlacesRadiusMeters, cfg.PlacesType, cfg.GoogleTimeout, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, places, places, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("relay stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
