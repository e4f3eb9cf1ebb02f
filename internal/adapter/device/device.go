// Package device provides Positioners that stand in for native positioning
// hardware when the process has none.
package device

import (
	"context"

	"github.com/couchcryptid/nearby-hospitals/internal/domain"
)

// Static reports a fixed coordinate, as a simulated device would.
type Static struct {
	Coordinate domain.Coordinate
}

// CurrentPosition returns the fixed coordinate unless ctx is already done.
func (s Static) CurrentPosition(ctx context.Context, _ domain.PositionOptions) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, domain.ErrTimeout
	}
	if err := s.Coordinate.Validate(); err != nil {
		return domain.Coordinate{}, domain.ErrUnsupported
	}
	return s.Coordinate, nil
}

// Unsupported is a Positioner for environments without positioning.
type Unsupported struct{}

func (Unsupported) CurrentPosition(context.Context, domain.PositionOptions) (domain.Coordinate, error) {
	return domain.Coordinate{}, domain.ErrUnsupported
}
