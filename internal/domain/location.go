package domain

import (
	"context"
	"time"
)

// AccuracyTier is a coarse confidence classification shown to the user.
type AccuracyTier string

const (
	TierHigh   AccuracyTier = "high"
	TierMedium AccuracyTier = "medium"
	TierLow    AccuracyTier = "low"
)

// Provenance records which method produced a ResolvedLocation.
type Provenance string

const (
	ProvenanceGeocodeAPI     Provenance = "geocode-api"
	ProvenanceGeolocationAPI Provenance = "geolocation-api"
	ProvenanceIPBased        Provenance = "ip-based"
	ProvenanceManualInput    Provenance = "manual-input"
	ProvenanceMapOverride    Provenance = "map-override"
)

// ResolvedLocation is the outcome of one successful resolution step. It is
// replaced as a whole by later steps, never mutated in place.
type ResolvedLocation struct {
	Coordinate  Coordinate   `json:"coordinate"`
	Tier        AccuracyTier `json:"accuracy_tier"`
	Provenance  Provenance   `json:"provenance"`
	Description string       `json:"description,omitempty"` // formatted address when known
	ResolvedAt  time.Time    `json:"resolved_at"`
}

// NewResolvedLocation builds a ResolvedLocation whose tier follows the
// accuracy policy for the given provenance.
func NewResolvedLocation(c Coordinate, p Provenance, description string) ResolvedLocation {
	return ResolvedLocation{
		Coordinate:  c,
		Tier:        TierFor(p),
		Provenance:  p,
		Description: description,
		ResolvedAt:  clock.Now(),
	}
}

// PositionOptions mirrors the knobs a native positioning API accepts.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaxAge       time.Duration // 0 disables cached fixes
}

// Positioner is the device's native positioning capability.
type Positioner interface {
	// CurrentPosition blocks until a fix is available or the request fails.
	// Failures should be one of ErrPermissionDenied, ErrTimeout, ErrUnsupported.
	CurrentPosition(ctx context.Context, opts PositionOptions) (Coordinate, error)
}

// IPLocator resolves a coarse location from the caller's network origin.
type IPLocator interface {
	// Locate fails with ErrServiceUnavailable or ErrNoLocationFound.
	Locate(ctx context.Context) (Coordinate, error)
}
