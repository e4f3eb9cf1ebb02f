package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

// DefaultGeolocationTimeout bounds how long a device fix may take.
const DefaultGeolocationTimeout = 15 * time.Second

// GeoSource acquires a single device fix from a Positioner under a hard
// timeout.
type GeoSource struct {
	positioner domain.Positioner
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewGeoSource creates a GeoSource. A nil positioner makes every Acquire fail
// with domain.ErrUnsupported.
func NewGeoSource(p domain.Positioner, metrics *observability.Metrics, logger *slog.Logger) *GeoSource {
	return &GeoSource{
		positioner: p,
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// SetClock replaces the timer source. Pass nil to reset to real time.
func (g *GeoSource) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	g.clock = c
}

type fix struct {
	coord domain.Coordinate
	err   error
}

// Acquire races the positioner against a timer of length timeout. If the
// timer wins the request is cancelled and its late result is dropped.
// Failures are one of domain.ErrPermissionDenied, domain.ErrTimeout or
// domain.ErrUnsupported; a cancelled ctx returns ctx.Err().
func (g *GeoSource) Acquire(ctx context.Context, timeout time.Duration) (domain.Coordinate, error) {
	if g.positioner == nil {
		g.metrics.PositioningFailures.WithLabelValues("unsupported").Inc()
		return domain.Coordinate{}, fmt.Errorf("%w: no positioner configured", domain.ErrUnsupported)
	}
	if timeout <= 0 {
		timeout = DefaultGeolocationTimeout
	}

	start := g.clock.Now()
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so a result arriving after the timer never blocks the goroutine.
	results := make(chan fix, 1)
	go func() {
		c, err := g.positioner.CurrentPosition(reqCtx, domain.PositionOptions{
			HighAccuracy: true,
			Timeout:      timeout,
			MaxAge:       0,
		})
		results <- fix{coord: c, err: err}
	}()

	timer := g.clock.NewTimer(timeout)
	defer timer.Stop()

	var f fix
	select {
	case f = <-results:
	case <-timer.Chan():
		f = fix{err: fmt.Errorf("%w after %s", domain.ErrTimeout, timeout)}
	case <-ctx.Done():
		return domain.Coordinate{}, ctx.Err()
	}
	g.metrics.PositioningDuration.Observe(g.clock.Since(start).Seconds())

	if f.err == nil {
		if err := f.coord.Validate(); err != nil {
			f.err = fmt.Errorf("%w: %w", domain.ErrUnsupported, err)
		}
	}
	if f.err != nil {
		err := classify(f.err)
		g.metrics.PositioningFailures.WithLabelValues(reason(err)).Inc()
		g.logger.Warn("device positioning failed", "error", err)
		return domain.Coordinate{}, err
	}
	return f.coord, nil
}

// classify folds any positioner error into the positioning taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied),
		errors.Is(err, domain.ErrTimeout),
		errors.Is(err, domain.ErrUnsupported):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrUnsupported, err)
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	default:
		return "unsupported"
	}
}
