package pinchctl

import (
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
)

// Observation is the public per-tick snapshot.
type Observation struct {
	// Timestamp is when the tick ran.
	Timestamp time.Time

	// Setpoint is the clamped target flow in effect for the tick.
	Setpoint float64

	// Flow is the estimated flow rate in g/s.
	Flow float64

	// FlowValid reports whether Flow was usable this tick.
	FlowValid bool

	// Command is the normalized valve position last commanded.
	Command float64

	// State is the regulator lifecycle state at read time.
	State State
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// TickEvent is emitted once per published control tick.
type TickEvent struct {
	Observation Observation
}

// FaultEvent is emitted when a hard failure latches the Faulted state.
type FaultEvent struct {
	Err  error
	When time.Time
}

// EventHandler receives regulator events. Handlers are called synchronously
// from the control goroutine and must return quickly; a slow handler delays
// the next tick.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnTick(event TickEvent)
	OnFault(event FaultEvent)
}

// BaseEventHandler provides no-op defaults. Embed it to implement only the
// callbacks you care about.
type BaseEventHandler struct{}

// OnStateChange does nothing.
func (BaseEventHandler) OnStateChange(StateChangeEvent) {}

// OnTick does nothing.
func (BaseEventHandler) OnTick(TickEvent) {}

// OnFault does nothing.
func (BaseEventHandler) OnFault(FaultEvent) {}

// convertObservation maps the internal snapshot to the public one.
func convertObservation(obs domain.Observation, state State) Observation {
	return Observation{
		Timestamp: obs.Timestamp,
		Setpoint:  obs.Setpoint,
		Flow:      obs.Flow,
		FlowValid: obs.FlowValid,
		Command:   obs.Command,
		State:     state,
	}
}
