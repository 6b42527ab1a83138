package ports

import "context"

// ValveActuator moves the physical pinch valve.
// Commands are normalized closure fractions: 0 is fully closed, 1 fully open.
type ValveActuator interface {
	// Command moves the valve to position x in [0,1].
	// Returns an error wrapping domain.ErrCommandRejected when the command
	// is out of range or the actuator refuses it; the loop treats that as
	// fatal. Implementations must honor ctx cancellation and deadlines.
	Command(ctx context.Context, x float64) error

	// LastPosition returns the last successfully commanded position.
	// Safe to call concurrently with Command.
	LastPosition() float64
}
