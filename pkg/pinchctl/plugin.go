package pinchctl

import "context"

// SetpointWriter is the regulator capability handed to plugins: read and
// write the target flow rate without access to loop internals.
type SetpointWriter interface {
	Setpoint() float64
	SetSetpoint(flow float64) error
}

// PluginConfig provides plugins with their runtime dependencies.
type PluginConfig struct {
	// Setpoint lets the plugin drive the target flow rate.
	Setpoint SetpointWriter

	// Logger is the regulator's structured logger.
	Logger Logger
}

// Plugin extends a Regulator with optional functionality.
// Plugins are initialized in registration order when the regulator starts
// and shut down in reverse order when it stops.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize sets the plugin up. The context is canceled when the
	// regulator stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases the plugin's resources.
	Shutdown(ctx context.Context) error
}
