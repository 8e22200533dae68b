package geo

import (
	"context"
	"time"

	"github.com/nhle/health-alerts/internal/model"
)

// StaticLocator always reports the configured coordinates. It suits
// fixed installations (clinics, kiosks) where the position never changes.
type StaticLocator struct {
	At model.Coordinates
}

// Locate returns the configured coordinates.
func (s StaticLocator) Locate(ctx context.Context, opts Options) (Position, error) {
	return withTimeout(ctx, opts, func(ctx context.Context) (Position, error) {
		if err := ctx.Err(); err != nil {
			return Position{}, err
		}
		return Position{Coordinates: s.At, Timestamp: time.Now()}, nil
	})
}
