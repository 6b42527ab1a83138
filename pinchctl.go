// Package pinchctl provides closed-loop flow-rate control for gravimetric
// dosing rigs.
//
// Example usage:
//
//	cfg := pinchctl.DefaultConfig()
//	cfg.WeightFile = "/var/lib/scale/weight.log"
//	cfg.InitialSetpoint = 20
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	if err := pinchctl.Run(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// For the full embeddable API (event handlers, plugins, injected adapters),
// use the pkg/pinchctl package directly.
package pinchctl

import (
	"context"
	"errors"
	"time"

	lib "github.com/biofluidics/pinchctl/pkg/pinchctl"
)

// Config holds the configuration for the flow regulator.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = lib.Config

// Option configures optional behavior of the regulator.
type Option = lib.Option

// DefaultConfig returns a Config with sensible default values.
// At minimum, set WeightFile (or Simulate) before calling Run.
func DefaultConfig() Config {
	return lib.DefaultConfig()
}

// Run regulates flow with the given configuration until the context is
// cancelled or a hard fault latches. It blocks; on cancellation it stops
// the regulator gracefully and returns nil, on fault it returns ErrFaulted.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	reg, err := lib.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer reg.Close()

	if err := reg.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := reg.Stop(); err != nil && !errors.Is(err, lib.ErrNotRunning) {
				return err
			}
			return nil
		case <-ticker.C:
			switch reg.Status() {
			case lib.StateFaulted:
				return lib.ErrFaulted
			case lib.StateStopped:
				return nil
			}
		}
	}
}
