// Package resolver decides which location the nearby-facility search runs
// against. It owns the current ResolvedLocation and serializes competing
// resolution attempts with generation tokens: the latest attempt always wins,
// even if an older one finishes later.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
	"github.com/couchcryptid/nearby-hospitals/internal/observability"
)

var (
	// ErrNoLocation is returned by RetrySearch before any location has been resolved.
	ErrNoLocation = errors.New("no resolved location")
	// ErrNoPendingOverride is returned by ConfirmOverride when nothing was proposed.
	ErrNoPendingOverride = errors.New("no pending map override")
	// ErrSearchInterrupted is recorded in State.SearchErr when a failed or
	// abandoned attempt cut off the search for the location that was kept.
	ErrSearchInterrupted = errors.New("facility search interrupted")
)

// Phase is the resolver's lifecycle state.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseResolving     Phase = "resolving"
	PhaseResolved      Phase = "resolved"
	PhaseFailed        Phase = "failed"
	PhaseMisconfigured Phase = "misconfigured"
)

// Triggers recorded in metrics and logs.
const (
	triggerPrimary = "primary"
	triggerAddress = "address"
	triggerMap     = "map"
)

// PositionSource acquires a device fix under a timeout. *GeoSource implements it.
type PositionSource interface {
	Acquire(ctx context.Context, timeout time.Duration) (domain.Coordinate, error)
}

// Dependencies are the collaborators a Resolver drives. Geocoder and Searcher
// may be nil: refinement then always degrades and no search is made.
type Dependencies struct {
	Source   PositionSource
	IP       domain.IPLocator
	Geocoder domain.Geocoder
	Searcher domain.FacilitySearcher
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Options tune resolver behavior.
type Options struct {
	// RequireConfirm holds map overrides as pending until ConfirmOverride.
	RequireConfirm bool
	// GeolocationTimeout is passed to PositionSource.Acquire.
	GeolocationTimeout time.Duration
	// MissingAPIKey starts the resolver in PhaseMisconfigured.
	MissingAPIKey bool
}

// State is a point-in-time view of the resolver.
type State struct {
	Phase           Phase
	Current         *domain.ResolvedLocation
	Failure         *Failure
	Facilities      []domain.Facility
	SearchErr       error
	Searching       bool
	PendingOverride *OverrideEvent
	Generation      uint64
}

// Resolver runs the location pipeline. All methods are safe for concurrent
// use; the blocking ones return once their attempt has committed or been
// superseded.
type Resolver struct {
	source   PositionSource
	ip       domain.IPLocator
	geocoder domain.Geocoder
	searcher domain.FacilitySearcher
	metrics  *observability.Metrics
	logger   *slog.Logger
	opts     Options

	gen atomic.Uint64

	mu         sync.Mutex
	state      State
	cancelPrev context.CancelFunc
	listeners  []func(State)
}

// New creates a Resolver in PhaseIdle, or PhaseMisconfigured when
// opts.MissingAPIKey is set.
func New(deps Dependencies, opts Options) *Resolver {
	if opts.GeolocationTimeout <= 0 {
		opts.GeolocationTimeout = DefaultGeolocationTimeout
	}
	r := &Resolver{
		source:   deps.Source,
		ip:       deps.IP,
		geocoder: deps.Geocoder,
		searcher: deps.Searcher,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		opts:     opts,
		state:    State{Phase: PhaseIdle},
	}
	if opts.MissingAPIKey {
		r.state.Phase = PhaseMisconfigured
		r.state.Failure = misconfiguredFailure()
	}
	return r
}

// Snapshot returns a copy of the current state.
func (r *Resolver) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// OnChange registers fn to be called with a snapshot after every state
// change. Listeners run on the goroutine that made the change, outside the
// resolver's lock.
func (r *Resolver) OnChange(fn func(State)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Start runs the primary pipeline: device fix, then refinement, falling
// back to IP location when the device fails.
func (r *Resolver) Start(ctx context.Context) (Outcome, error) {
	return r.resolvePrimary(ctx)
}

// Refresh re-runs the primary pipeline, superseding any attempt in flight.
func (r *Resolver) Refresh(ctx context.Context) (Outcome, error) {
	return r.resolvePrimary(ctx)
}

func (r *Resolver) resolvePrimary(ctx context.Context) (Outcome, error) {
	if r.opts.MissingAPIKey {
		return Outcome{}, domain.ErrMisconfiguredKey
	}
	actx, gen, cancel := r.begin(ctx)
	defer cancel()

	var loc domain.ResolvedLocation
	coord, geoErr := r.acquire(actx)
	if r.stale(gen) {
		return r.superseded(triggerPrimary)
	}
	if geoErr == nil {
		loc = domain.RefineCoordinate(actx, coord, r.geocoder, r.logger)
	} else {
		if ctx.Err() != nil {
			return r.abandon(gen, ctx.Err())
		}
		r.logger.Warn("device position unavailable, falling back to ip location", "error", geoErr)

		ipCoord, ipErr := r.locateByIP(actx)
		if r.stale(gen) {
			return r.superseded(triggerPrimary)
		}
		if ipErr != nil {
			if ctx.Err() != nil {
				return r.abandon(gen, ctx.Err())
			}
			return r.fail(gen, triggerPrimary, unavailableFailure(errors.Join(geoErr, ipErr)))
		}
		loc = domain.NewResolvedLocation(ipCoord, domain.ProvenanceIPBased, "")
	}
	return r.commitLocation(actx, gen, triggerPrimary, loc)
}

// SubmitAddress resolves a typed address. On failure the current location
// is kept and no search is made.
func (r *Resolver) SubmitAddress(ctx context.Context, address string) (Outcome, error) {
	if r.opts.MissingAPIKey {
		return Outcome{}, domain.ErrMisconfiguredKey
	}
	actx, gen, cancel := r.begin(ctx)
	defer cancel()

	loc, err := domain.ResolveAddress(actx, address, r.geocoder)
	if r.stale(gen) {
		return r.superseded(triggerAddress)
	}
	if err != nil {
		if ctx.Err() != nil {
			return r.abandon(gen, ctx.Err())
		}
		return r.fail(gen, triggerAddress, addressFailure(err))
	}
	return r.commitLocation(actx, gen, triggerAddress, loc)
}

// RetrySearch re-runs the facility search for the current location. Its
// results are dropped if another location commits first.
func (r *Resolver) RetrySearch(ctx context.Context) error {
	if r.opts.MissingAPIKey {
		return domain.ErrMisconfiguredKey
	}

	r.mu.Lock()
	cur := r.state.Current
	if cur == nil {
		r.mu.Unlock()
		return ErrNoLocation
	}
	gen := r.gen.Load()
	r.state.Searching = r.searcher != nil
	r.state.SearchErr = nil
	snap, listeners := r.snapshotLocked(), slices.Clone(r.listeners)
	r.mu.Unlock()
	notify(listeners, snap)

	return r.search(ctx, gen, cur)
}

func (r *Resolver) acquire(ctx context.Context) (domain.Coordinate, error) {
	if r.source == nil {
		return domain.Coordinate{}, domain.ErrUnsupported
	}
	return r.source.Acquire(ctx, r.opts.GeolocationTimeout)
}

func (r *Resolver) locateByIP(ctx context.Context) (domain.Coordinate, error) {
	if r.ip == nil {
		return domain.Coordinate{}, domain.ErrServiceUnavailable
	}
	return r.ip.Locate(ctx)
}

// begin starts a new attempt: it cancels the previous attempt's context,
// takes the next generation and enters PhaseResolving.
func (r *Resolver) begin(parent context.Context) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	if r.cancelPrev != nil {
		r.cancelPrev()
	}
	r.cancelPrev = cancel
	gen := r.gen.Add(1)
	r.state.Generation = gen
	r.state.Phase = PhaseResolving
	snap, listeners := r.snapshotLocked(), slices.Clone(r.listeners)
	r.mu.Unlock()

	notify(listeners, snap)
	return ctx, gen, cancel
}

func (r *Resolver) stale(gen uint64) bool {
	return r.gen.Load() != gen
}

// commit applies fn only if gen is still the latest attempt, then notifies
// listeners. It reports whether the change was applied.
func (r *Resolver) commit(gen uint64, fn func(*State)) bool {
	r.mu.Lock()
	if r.stale(gen) {
		r.mu.Unlock()
		return false
	}
	fn(&r.state)
	snap, listeners := r.snapshotLocked(), slices.Clone(r.listeners)
	r.mu.Unlock()

	notify(listeners, snap)
	return true
}

func (r *Resolver) commitLocation(ctx context.Context, gen uint64, trigger string, loc domain.ResolvedLocation) (Outcome, error) {
	cur := &loc
	ok := r.commit(gen, func(s *State) {
		s.Phase = PhaseResolved
		s.Current = cur
		s.Failure = nil
		s.PendingOverride = nil
		s.Facilities = nil
		s.SearchErr = nil
		s.Searching = r.searcher != nil
	})
	if !ok {
		return r.superseded(trigger)
	}

	r.metrics.Resolutions.WithLabelValues(trigger, "resolved").Inc()
	r.metrics.ResolvedProvenance.WithLabelValues(string(loc.Provenance)).Inc()
	r.logger.Info("location resolved",
		"trigger", trigger,
		"provenance", loc.Provenance,
		"tier", loc.Tier,
		"coordinate", loc.Coordinate.String(),
		"generation", gen,
	)

	// A search failure is recorded in State.SearchErr; the location stands.
	_ = r.search(ctx, gen, cur)
	return Outcome{location: &loc}, nil
}

// search runs the facility search for loc and commits the results only
// while gen is the latest attempt and loc is still the current location.
func (r *Resolver) search(ctx context.Context, gen uint64, loc *domain.ResolvedLocation) error {
	if r.searcher == nil {
		return nil
	}
	facilities, err := r.searcher.Search(ctx, loc.Coordinate)
	facilities = domain.CapFacilities(facilities)

	r.mu.Lock()
	if r.stale(gen) || r.state.Current != loc {
		r.mu.Unlock()
		r.metrics.StaleResults.Inc()
		return domain.ErrSuperseded
	}
	r.state.Searching = false
	if err != nil {
		r.state.SearchErr = err
		r.state.Facilities = nil
	} else {
		r.state.SearchErr = nil
		r.state.Facilities = facilities
	}
	snap, listeners := r.snapshotLocked(), slices.Clone(r.listeners)
	r.mu.Unlock()
	notify(listeners, snap)

	if err != nil {
		r.logger.Warn("facility search failed, keeping location", "coordinate", loc.Coordinate.String(), "error", err)
		return err
	}
	return nil
}

func (r *Resolver) fail(gen uint64, trigger string, f *Failure) (Outcome, error) {
	ok := r.commit(gen, func(s *State) {
		s.Phase = PhaseFailed
		s.Failure = f
		settleSearch(s)
	})
	if !ok {
		return r.superseded(trigger)
	}
	r.metrics.Resolutions.WithLabelValues(trigger, "failed").Inc()
	r.logger.Warn("location resolution failed", "trigger", trigger, "kind", f.Kind, "error", f.Err)
	return Outcome{failure: f}, nil
}

func (r *Resolver) superseded(trigger string) (Outcome, error) {
	r.metrics.Resolutions.WithLabelValues(trigger, "superseded").Inc()
	r.metrics.StaleResults.Inc()
	r.logger.Debug("discarding superseded attempt", "trigger", trigger)
	return Outcome{}, domain.ErrSuperseded
}

// abandon returns the resolver to a resting phase after the caller gave up
// on an attempt that is still the latest.
func (r *Resolver) abandon(gen uint64, err error) (Outcome, error) {
	r.commit(gen, func(s *State) {
		switch {
		case s.Failure != nil:
			s.Phase = PhaseFailed
		case s.Current != nil:
			s.Phase = PhaseResolved
		default:
			s.Phase = PhaseIdle
		}
		settleSearch(s)
	})
	return Outcome{}, err
}

// settleSearch ends a search that the failing attempt superseded. The kept
// location gets ErrSearchInterrupted so RetrySearch is offered.
func settleSearch(s *State) {
	if !s.Searching {
		return
	}
	s.Searching = false
	if s.Current != nil {
		s.SearchErr = ErrSearchInterrupted
	}
}

func (r *Resolver) snapshotLocked() State {
	s := r.state
	s.Facilities = slices.Clone(r.state.Facilities)
	return s
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
