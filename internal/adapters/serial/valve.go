package serial

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	serialport "go.bug.st/serial"

	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/internal/ports"
)

// DefaultPositions is the pinch valve's step count for full travel.
const DefaultPositions = 400

// Valve implements ports.ValveActuator over a serial line speaking the
// "/1A{step}R" move-absolute dialect. Normalized commands in [0,1] are
// mapped to integer step positions.
type Valve struct {
	mu        sync.Mutex
	w         io.Writer
	closer    io.Closer
	positions int
	last      float64
	logger    ports.Logger
}

// NewValve wraps an already-open writer. Used by tests and by OpenValve.
func NewValve(w io.Writer, positions int, logger ports.Logger) *Valve {
	if positions <= 0 {
		positions = DefaultPositions
	}
	return &Valve{w: w, positions: positions, logger: logger}
}

// OpenValve opens the serial port and returns a valve bound to it.
// The port stays open for the life of the valve; release it with Close.
func OpenValve(portName string, baudRate, positions int, logger ports.Logger) (*Valve, error) {
	port, err := serialport.Open(portName, &serialport.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("open valve port %s: %w", portName, err)
	}
	v := NewValve(port, positions, logger)
	v.closer = port
	return v, nil
}

// Command moves the valve to the normalized position x.
// Commands outside [0,1] and write failures are rejections: the loop
// treats them as actuator faults.
func (v *Valve) Command(ctx context.Context, x float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if math.IsNaN(x) || x < 0 || x > 1 {
		return fmt.Errorf("%w: position %v outside [0,1]", domain.ErrCommandRejected, x)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	steps := int(math.Round(x * float64(v.positions)))
	if _, err := fmt.Fprintf(v.w, "/1A%dR\r\n", steps); err != nil {
		return fmt.Errorf("%w: write: %v", domain.ErrCommandRejected, err)
	}
	v.last = x

	v.logger.Debug("valve moved",
		ports.Int("steps", steps),
		ports.Float64("position", x),
	)
	return nil
}

// LastPosition returns the last successfully commanded position.
func (v *Valve) LastPosition() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.last
}

// Close releases the serial port, if this valve owns one.
func (v *Valve) Close() error {
	if v.closer != nil {
		return v.closer.Close()
	}
	return nil
}
