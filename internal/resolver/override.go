package resolver

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
)

// OverrideTrigger is the map gesture that produced an override.
type OverrideTrigger string

const (
	TriggerClick OverrideTrigger = "click"
	TriggerDrag  OverrideTrigger = "drag"
)

// OverrideEvent is a user-chosen coordinate from the map surface.
type OverrideEvent struct {
	Coordinate domain.Coordinate
	Trigger    OverrideTrigger
}

// ApplyOverride sets the location from a map gesture. With RequireConfirm
// the event is only proposed and the returned Outcome is Pending.
func (r *Resolver) ApplyOverride(ctx context.Context, ev OverrideEvent) (Outcome, error) {
	if r.opts.MissingAPIKey {
		return Outcome{}, domain.ErrMisconfiguredKey
	}
	if err := ev.Coordinate.Validate(); err != nil {
		return Outcome{}, err
	}
	if r.opts.RequireConfirm {
		if err := r.ProposeOverride(ev); err != nil {
			return Outcome{}, err
		}
		return Outcome{pending: true}, nil
	}
	return r.applyOverride(ctx, ev)
}

// ProposeOverride records ev as the pending override, replacing any earlier
// proposal. Nothing else changes until ConfirmOverride.
func (r *Resolver) ProposeOverride(ev OverrideEvent) error {
	if r.opts.MissingAPIKey {
		return domain.ErrMisconfiguredKey
	}
	if err := ev.Coordinate.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	r.state.PendingOverride = &ev
	snap, listeners := r.snapshotLocked(), slices.Clone(r.listeners)
	r.mu.Unlock()

	notify(listeners, snap)
	return nil
}

// ConfirmOverride applies the pending override as a map-override location.
func (r *Resolver) ConfirmOverride(ctx context.Context) (Outcome, error) {
	if r.opts.MissingAPIKey {
		return Outcome{}, domain.ErrMisconfiguredKey
	}

	r.mu.Lock()
	ev := r.state.PendingOverride
	r.state.PendingOverride = nil
	r.mu.Unlock()

	if ev == nil {
		return Outcome{}, ErrNoPendingOverride
	}
	return r.applyOverride(ctx, *ev)
}

// CancelOverride drops the pending override. It reports whether one existed.
func (r *Resolver) CancelOverride() bool {
	r.mu.Lock()
	if r.state.PendingOverride == nil {
		r.mu.Unlock()
		return false
	}
	r.state.PendingOverride = nil
	snap, listeners := r.snapshotLocked(), slices.Clone(r.listeners)
	r.mu.Unlock()

	notify(listeners, snap)
	return true
}

func (r *Resolver) applyOverride(ctx context.Context, ev OverrideEvent) (Outcome, error) {
	actx, gen, cancel := r.begin(ctx)
	defer cancel()
	return r.finishOverride(actx, gen, ev)
}

func (r *Resolver) finishOverride(ctx context.Context, gen uint64, ev OverrideEvent) (Outcome, error) {
	loc := domain.NewResolvedLocation(ev.Coordinate, domain.ProvenanceMapOverride, "")
	r.logger.Debug("map override", "trigger", ev.Trigger, "coordinate", ev.Coordinate.String())
	return r.commitLocation(ctx, gen, triggerMap, loc)
}

// Watch applies override events from the map surface until ctx is done or
// events is closed. Generations are taken in arrival order, so a later
// gesture supersedes one still searching.
func (r *Resolver) Watch(ctx context.Context, events <-chan OverrideEvent) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if r.opts.MissingAPIKey {
				return domain.ErrMisconfiguredKey
			}
			if err := ev.Coordinate.Validate(); err != nil {
				r.logger.Warn("map override rejected", "trigger", ev.Trigger, "error", err)
				continue
			}
			if r.opts.RequireConfirm {
				_ = r.ProposeOverride(ev)
				continue
			}
			actx, gen, cancel := r.begin(ctx)
			wg.Go(func() {
				defer cancel()
				_, err := r.finishOverride(actx, gen, ev)
				if err != nil && !errors.Is(err, domain.ErrSuperseded) {
					r.logger.Debug("map override not committed", "trigger", ev.Trigger, "error", err)
				}
			})
		}
	}
}
