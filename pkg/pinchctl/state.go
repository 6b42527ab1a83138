package pinchctl

import "github.com/biofluidics/pinchctl/internal/control"

// State is the public lifecycle state of a Regulator.
type State int

const (
	// StateStopped: not running; the valve holds its last commanded position.
	StateStopped State = iota

	// StateStarting: Start() accepted, the loop is coming up.
	StateStarting

	// StateRunning: the loop is ticking.
	StateRunning

	// StateStopping: Stop() accepted, the in-flight tick is completing.
	StateStopping

	// StateFaulted: a sensor or actuator hard failure latched; the valve
	// was commanded to the fail-safe position. Requires Reset().
	StateFaulted
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateFaulted:
		return "Faulted"
	default:
		return "Unknown"
	}
}

// convertState maps the internal lifecycle state to the public one.
func convertState(s control.State) State {
	switch s {
	case control.StateStopped:
		return StateStopped
	case control.StateStarting:
		return StateStarting
	case control.StateRunning:
		return StateRunning
	case control.StateStopping:
		return StateStopping
	case control.StateFaulted:
		return StateFaulted
	default:
		return StateStopped
	}
}
