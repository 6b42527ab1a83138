package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/biofluidics/pinchctl/internal/cliconfig"
	"github.com/biofluidics/pinchctl/pkg/log"
	"github.com/biofluidics/pinchctl/pkg/pinchctl"
	"github.com/biofluidics/pinchctl/plugins/setpointwatcher"
)

const helpBanner = `
        _            _          _   _
  _ __ (_)_ __   ___| |__   ___| |_| |
 | '_ \| | '_ \ / __| '_ \ / __| __| |
 | |_) | | | | | (__| | | | (__| |_| |
 | .__/|_|_| |_|\___|_| |_|\___|\__|_|
 |_|
`

const helpDescription = `
Closed-loop flow-rate control for gravimetric dosing rigs.

Highlights:
  - Reads a scale's weight log, estimates flow, and drives a pinch valve with PID.
  - Freezes safely on stale sensors; commands fail-safe on faults and shutdown.
  - Live setpoint updates via HTTP or a watched file; configure via file, env, or flags.
  - Built-in simulated rig for tuning without hardware (--simulate).
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  pinchctl --weight-file /var/lib/scale/weight.log --setpoint 20
  pinchctl --simulate --setpoint 15 --listen 127.0.0.1:9090
  pinchctl --config $HOME/.pinchctl/config.toml
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "pinchctl",
		Short:   "Closed-loop flow-rate control for gravimetric dosing rigs",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.pinchctl/config.toml),
			// then apply env and flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (PINCHCTL_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info().Interface("config", cfg).Msg("configuration")

			libCfg := cfg.LibConfig()

			zerologAdapter := log.NewZerologAdapterWithLogger(logger)

			opts := []pinchctl.Option{
				pinchctl.WithLogger(zerologAdapter),
			}
			if cfg.SetpointFile != "" {
				watcherCfg := setpointwatcher.DefaultConfig()
				watcherCfg.Path = cfg.SetpointFile
				opts = append(opts, setpointwatcher.WithSetpointWatcher(watcherCfg))
			}

			reg, err := pinchctl.New(libCfg, opts...)
			if err != nil {
				return fmt.Errorf("create regulator: %w", err)
			}
			defer func() {
				if err := reg.Close(); err != nil {
					logger.Error().Err(err).Msg("close hardware")
				}
			}()

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			if err := reg.Start(ctx); err != nil {
				return fmt.Errorf("start regulator: %w", err)
			}

			// Detect fault-driven completion
			doneCh := make(chan struct{})
			go func() {
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := reg.Status()
						if status == pinchctl.StateStopped || status == pinchctl.StateFaulted {
							close(doneCh)
							return
						}
					}
				}
			}()

			select {
			case <-sigCh:
				logger.Info().Msg("received signal, stopping...")
			case <-doneCh:
				if reg.Status() == pinchctl.StateFaulted {
					obs := reg.Snapshot()
					logger.Error().
						Float64("setpoint", obs.Setpoint).
						Float64("flow", obs.Flow).
						Msg("regulator faulted, valve held at fail-safe")
					return fmt.Errorf("regulator faulted")
				}
			}

			if err := reg.Stop(); err != nil {
				return fmt.Errorf("stop regulator: %w", err)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.pinchctl/config.toml)")
	root.Flags().StringVar(&cfg.WeightFile, "weight-file", cfg.WeightFile, "scale weight log file (<unix-millis>,<grams> per line)")
	root.Flags().StringVar(&cfg.SerialPort, "serial-port", cfg.SerialPort, "valve controller serial port")
	root.Flags().IntVar(&cfg.BaudRate, "baud", cfg.BaudRate, "serial line speed")
	root.Flags().IntVar(&cfg.ValvePositions, "valve-positions", cfg.ValvePositions, "valve step count for full travel")

	root.Flags().Float64Var(&cfg.Setpoint, "setpoint", cfg.Setpoint, "target flow rate in g/s")
	root.Flags().StringVar(&cfg.SetpointFile, "setpoint-file", cfg.SetpointFile, "watch this file for live setpoint updates")

	root.Flags().DurationVar(&cfg.SampleInterval, "interval", cfg.SampleInterval, "control loop cadence")
	root.Flags().DurationVar(&cfg.IOTimeout, "io-timeout", cfg.IOTimeout, "per-tick scale read / valve command timeout")

	root.Flags().Float64Var(&cfg.Kp, "kp", cfg.Kp, "proportional gain (normalized valve position per g/s)")
	root.Flags().Float64Var(&cfg.Ki, "ki", cfg.Ki, "integral gain")
	root.Flags().Float64Var(&cfg.Kd, "kd", cfg.Kd, "derivative gain")
	root.Flags().Float64Var(&cfg.MaxSlewRate, "max-slew-rate", cfg.MaxSlewRate, "max valve command change per second (0 disables)")
	root.Flags().Float64Var(&cfg.FlowMax, "flow-max", cfg.FlowMax, "upper bound of the valid flow range in g/s")
	root.Flags().DurationVar(&cfg.FilterTimeConstant, "filter-tau", cfg.FilterTimeConstant, "flow estimate smoothing time constant")
	root.Flags().DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "declare the scale stalled beyond this sample gap")
	root.Flags().Float64Var(&cfg.FailSafePosition, "fail-safe", cfg.FailSafePosition, "valve position commanded on fault and shutdown")

	root.Flags().BoolVar(&cfg.Simulate, "simulate", cfg.Simulate, "run against the built-in simulated rig")
	root.Flags().Float64Var(&cfg.SimFlowAtOpen, "sim-flow", cfg.SimFlowAtOpen, "simulated flow with the valve fully open (g/s)")
	if err := root.Flags().MarkHidden("sim-flow"); err != nil {
		logger.Info().Err(err).Msg("failed to hide sim-flow flag")
	}

	root.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "serve the observation feed on this address (empty disables)")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("pinchctl")
		os.Exit(1)
	}
}
