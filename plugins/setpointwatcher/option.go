package setpointwatcher

import "github.com/biofluidics/pinchctl/pkg/pinchctl"

// WithSetpointWatcher returns a pinchctl Option that enables setpoint file
// watching. When enabled, the plugin monitors the configured file and
// applies the flow rate it holds to the running regulator.
//
// Usage:
//
//	reg, err := pinchctl.New(cfg,
//	    setpointwatcher.WithSetpointWatcher(setpointwatcher.Config{
//	        Path:          "/var/lib/pinchctl/setpoint",
//	        DebounceDelay: 100 * time.Millisecond,
//	    }),
//	)
func WithSetpointWatcher(cfg Config) pinchctl.Option {
	plugin := New(cfg)
	return pinchctl.WithPlugin(plugin)
}
