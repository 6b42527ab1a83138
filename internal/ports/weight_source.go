package ports

import (
	"context"

	"github.com/biofluidics/pinchctl/internal/domain"
)

// WeightSource supplies the latest available weight sample on demand.
// Implementations read from a scale over a file, serial bus, or network;
// callbacks or async notifications must buffer the newest sample behind
// this pull contract so the control loop's cadence stays the single source
// of timing truth.
type WeightSource interface {
	// Read returns the most recent sample.
	// Returns domain.ErrNoSample when nothing new arrived since the last
	// read (stale, not an error condition for the loop).
	// Returns an error wrapping domain.ErrSensorFault on hard failure.
	// Implementations must honor ctx cancellation and deadlines.
	Read(ctx context.Context) (domain.WeightSample, error)
}
