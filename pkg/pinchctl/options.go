package pinchctl

import (
	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/internal/ports"
	"github.com/biofluidics/pinchctl/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// WeightSample is a single timestamped scale reading.
type WeightSample = domain.WeightSample

// WeightSource supplies the latest scale sample on demand.
// Implement it to bind a custom scale backend; return ErrNoSample when
// nothing new arrived, or an error wrapping ErrSensorFault on hard failure.
type WeightSource = ports.WeightSource

// ValveActuator moves the physical valve given normalized commands in [0,1].
type ValveActuator = ports.ValveActuator

// Sentinel errors re-exported for adapter implementations and callers.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrFaulted         = domain.ErrFaulted
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrNoSample        = domain.ErrNoSample
	ErrSensorFault     = domain.ErrSensorFault
	ErrCommandRejected = domain.ErrCommandRejected
)

// Option configures optional behavior of a Regulator.
type Option func(*options)

// options holds the optional configuration for a Regulator instance.
type options struct {
	logger       ports.Logger
	source       ports.WeightSource
	actuator     ports.ValveActuator
	eventHandler EventHandler
	plugins      []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWeightSource injects a custom scale backend, overriding the
// file/simulation selection in Config.
func WithWeightSource(source WeightSource) Option {
	return func(o *options) {
		o.source = source
	}
}

// WithValveActuator injects a custom valve backend, overriding the
// serial/simulation selection in Config.
func WithValveActuator(actuator ValveActuator) Option {
	return func(o *options) {
		o.actuator = actuator
	}
}

// WithEventHandler sets a handler for regulator events.
// Events are called synchronously from the control goroutine.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the regulator
// starts. Plugins are initialized in registration order and shut down in
// reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
