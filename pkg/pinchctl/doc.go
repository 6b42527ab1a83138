// Package pinchctl provides an embeddable closed-loop flow-rate regulator
// for gravimetric dosing rigs.
//
// Pinchctl reads mass samples from a scale, estimates the flow rate, and
// drives a pinch valve with a PID controller at a fixed cadence. It can be
// used as a standalone CLI application or embedded as a library in other
// Go programs.
//
// # Basic Usage
//
// To embed pinchctl in your application:
//
//	cfg := pinchctl.DefaultConfig()
//	cfg.WeightFile = "/var/lib/scale/weight.log"
//	cfg.SerialPort = "/dev/ttyUSB0"
//	cfg.InitialSetpoint = 20 // g/s
//
//	reg, err := pinchctl.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := reg.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	// ... run until shutdown signal ...
//
//	if err := reg.Stop(); err != nil {
//	    log.Printf("shutdown error: %v", err)
//	}
//
// # Configuration
//
// Create a [Config] with at minimum WeightFile and SerialPort, or set
// Simulate to run against a built-in simulated rig. All other fields have
// sensible defaults set via [Config.SetDefaults].
//
// # Event Handling
//
// To receive notifications about regulator activity, implement [EventHandler]
// and pass it via [WithEventHandler]:
//
//	handler := &myEventHandler{}
//	reg, err := pinchctl.New(cfg, pinchctl.WithEventHandler(handler))
//
// Events are called synchronously from the control goroutine. Implementations
// should return quickly to avoid delaying the next tick.
//
// # Dependency Injection
//
// For testing, you can inject custom implementations of external dependencies:
//
//	reg, err := pinchctl.New(cfg,
//	    pinchctl.WithWeightSource(mockScale),
//	    pinchctl.WithValveActuator(mockValve),
//	    pinchctl.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Regulator can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateFaulted]. Use [Regulator.Status]
// to query the current state. A faulted regulator holds the valve at the
// fail-safe position and must be cleared with [Regulator.Reset] before it
// can start again.
//
// # Plugins
//
// Pinchctl supports optional plugins for extended functionality:
//
//	import "github.com/biofluidics/pinchctl/plugins/setpointwatcher"
//
//	reg, err := pinchctl.New(cfg,
//	    setpointwatcher.WithSetpointWatcher(setpointwatcher.DefaultConfig()),
//	)
package pinchctl
