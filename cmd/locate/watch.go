package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/couchcryptid/nearby-hospitals/internal/resolver"
)

// observe redraws surface and reprints results after each settled
// resolution, and prompts once for each proposed map move.
func (a *app) observe(surface *terminalMap, w io.Writer, asJSON bool) {
	var prompted *resolver.OverrideEvent
	a.resolver.OnChange(func(s resolver.State) {
		a.outMu.Lock()
		defer a.outMu.Unlock()

		if s.PendingOverride != nil && s.PendingOverride != prompted {
			prompted = s.PendingOverride
			fmt.Fprintf(w, "Move your location to %s? [y/n]\n", s.PendingOverride.Coordinate)
		}
		if s.Phase == resolver.PhaseResolved && !s.Searching {
			a.presenter.Render(surface)
			_ = a.printLocked(w, asJSON)
		}
	})
}

// consume feeds map input to the resolver until ctx is done or input ends.
// Without the confirm gate gestures go straight to Resolver.Watch; with it,
// gestures become proposals and y/n lines confirm or cancel them in order.
func (a *app) consume(ctx context.Context, surface *terminalMap) error {
	if !a.requireConfirm {
		return a.resolver.Watch(ctx, surface.Overrides())
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-surface.Inputs():
			if !ok {
				return nil
			}
			a.decide(ctx, in)
		}
	}
}

func (a *app) decide(ctx context.Context, in mapInput) {
	switch in.decision {
	case decisionConfirm:
		_, err := a.resolver.ConfirmOverride(ctx)
		switch {
		case errors.Is(err, resolver.ErrNoPendingOverride):
			a.logger.Warn("nothing to confirm; click the map first")
		case err != nil && !errors.Is(err, context.Canceled):
			a.logger.Warn("map override not applied", "error", err)
		}
	case decisionCancel:
		if !a.resolver.CancelOverride() {
			a.logger.Warn("nothing to cancel")
		}
	default:
		if err := a.resolver.ProposeOverride(in.event); err != nil {
			a.logger.Warn("map override rejected", "trigger", in.event.Trigger, "error", err)
		}
	}
}
