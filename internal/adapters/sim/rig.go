package sim

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
)

// Rig is an in-memory weight source and valve actuator pair for bench
// development without hardware. Mass in the receiving vessel integrates at
// rate = position × FlowAtOpen, the loopback model the original rig used:
// what the valve lets through is exactly what the scale accumulates.
type Rig struct {
	mu          sync.Mutex
	now         func() time.Time
	flowAtOpen  float64
	mass        float64
	position    float64
	lastAdvance time.Time
	lastRead    time.Time
}

// NewRig creates a rig whose scale accumulates flowAtOpen grams per second
// with the valve fully open.
func NewRig(flowAtOpen float64) *Rig {
	return NewRigWithClock(flowAtOpen, time.Now)
}

// NewRigWithClock creates a rig with an injected clock for deterministic tests.
func NewRigWithClock(flowAtOpen float64, now func() time.Time) *Rig {
	return &Rig{now: now, flowAtOpen: flowAtOpen}
}

// Read implements ports.WeightSource. Each read first advances the
// simulated mass to the current clock. A read at an unchanged clock
// instant reports staleness, like a real scale that has not published.
func (r *Rig) Read(ctx context.Context) (domain.WeightSample, error) {
	if err := ctx.Err(); err != nil {
		return domain.WeightSample{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.advance(now)

	if !now.After(r.lastRead) {
		return domain.WeightSample{}, domain.ErrNoSample
	}
	r.lastRead = now

	return domain.WeightSample{Timestamp: now, Mass: r.mass}, nil
}

// Command implements ports.ValveActuator.
func (r *Rig) Command(ctx context.Context, x float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if math.IsNaN(x) || x < 0 || x > 1 {
		return fmt.Errorf("%w: position %v outside [0,1]", domain.ErrCommandRejected, x)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Integrate at the old position up to now, then switch.
	r.advance(r.now())
	r.position = x
	return nil
}

// LastPosition implements ports.ValveActuator.
func (r *Rig) LastPosition() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Mass returns the accumulated mass, advanced to the current clock.
func (r *Rig) Mass() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advance(r.now())
	return r.mass
}

// advance integrates mass at the current position up to now.
// Callers must hold r.mu.
func (r *Rig) advance(now time.Time) {
	if !r.lastAdvance.IsZero() {
		if dt := now.Sub(r.lastAdvance).Seconds(); dt > 0 {
			r.mass += r.position * r.flowAtOpen * dt
		}
	}
	r.lastAdvance = now
}
