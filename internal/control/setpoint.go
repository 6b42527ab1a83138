package control

import (
	"math"
	"sync/atomic"
)

// Setpoint is the desired flow rate, shared between the control loop and
// external writers (CLI, observation feed, plugins). Reads and writes are
// atomic: the loop always sees a complete value, read exactly once at the
// start of each tick.
type Setpoint struct {
	bits atomic.Uint64
}

// NewSetpoint creates a setpoint holding the initial value.
func NewSetpoint(initial float64) *Setpoint {
	s := &Setpoint{}
	s.Set(initial)
	return s
}

// Set stores a new target flow rate.
func (s *Setpoint) Set(v float64) {
	s.bits.Store(math.Float64bits(v))
}

// Get returns the current target flow rate.
func (s *Setpoint) Get() float64 {
	return math.Float64frombits(s.bits.Load())
}
