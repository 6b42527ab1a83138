package pinchctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/biofluidics/pinchctl/internal/adapters/fs"
	"github.com/biofluidics/pinchctl/internal/adapters/httpapi"
	serialvalve "github.com/biofluidics/pinchctl/internal/adapters/serial"
	"github.com/biofluidics/pinchctl/internal/adapters/sim"
	"github.com/biofluidics/pinchctl/internal/control"
	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/internal/ports"
)

// Regulator is a closed-loop flow-rate controller that can be embedded in
// other applications. Use New() to create an instance, then Start() to
// begin regulating.
type Regulator struct {
	config    Config
	opts      options
	lifecycle *control.Lifecycle
	loop      *control.Loop
	setpoint  *control.Setpoint
	source    ports.WeightSource
	actuator  ports.ValveActuator
	logger    ports.Logger

	// feed is the observation HTTP server, nil when ListenAddr is unset.
	feed *httpapi.Server

	// hw holds hardware the regulator opened itself (the serial valve).
	hw io.Closer

	plugins []Plugin

	mu       sync.Mutex
	cancel   context.CancelFunc
	tornDown bool
}

// New creates a new Regulator with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
// Returns an error if configuration is invalid or hardware cannot be opened.
func New(cfg Config, opts ...Option) (*Regulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	lifecycle := control.NewLifecycle(logger, emitter)
	emitter.lifecycle = lifecycle

	setpoint := control.NewSetpoint(clampFlow(cfg, cfg.InitialSetpoint))

	source := o.source
	actuator := o.actuator
	var hw io.Closer
	if cfg.Simulate {
		rig := sim.NewRig(cfg.SimFlowAtOpen)
		if source == nil {
			source = rig
		}
		if actuator == nil {
			actuator = rig
		}
	} else {
		if source == nil {
			if cfg.WeightFile == "" {
				return nil, fmt.Errorf("%w: weight file required (or Simulate, or WithWeightSource)", domain.ErrInvalidConfig)
			}
			source = fs.NewWeightFileSource(cfg.WeightFile, logger)
		}
		if actuator == nil {
			valve, err := serialvalve.OpenValve(cfg.SerialPort, cfg.BaudRate, cfg.ValvePositions, logger)
			if err != nil {
				return nil, err
			}
			actuator = valve
			hw = valve
		}
	}

	loop, err := control.NewLoop(cfg.controlConfig(), source, actuator, setpoint, logger, emitter)
	if err != nil {
		if hw != nil {
			_ = hw.Close()
		}
		return nil, err
	}

	r := &Regulator{
		config:    cfg,
		opts:      o,
		lifecycle: lifecycle,
		loop:      loop,
		setpoint:  setpoint,
		source:    source,
		actuator:  actuator,
		logger:    logger,
		hw:        hw,
		plugins:   o.plugins,
	}

	if cfg.ListenAddr != "" {
		r.feed = httpapi.NewServer(cfg.ListenAddr, feedView{r}, logger)
	}

	return r, nil
}

// Start begins regulating in the background.
// Returns immediately after starting the control goroutine.
// A faulted regulator must be Reset() before it can start again.
// The provided context is used for the lifetime of the control session.
func (r *Regulator) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanStart() {
		if r.lifecycle.CanReset() {
			return domain.ErrFaulted
		}
		return domain.ErrAlreadyRunning
	}

	if err := r.lifecycle.TransitionTo(control.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.tornDown = false
	r.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		Setpoint: r,
		Logger:   r.logger,
	}
	for i, p := range r.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			r.shutdownPlugins(i - 1)
			r.tornDown = true
			_ = r.lifecycle.TransitionTo(control.StateFaulted, "plugin init failed: "+p.Name())
			return err
		}
		r.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	if r.feed != nil {
		if err := r.feed.Start(); err != nil {
			cancel()
			r.shutdownPlugins(len(r.plugins) - 1)
			r.tornDown = true
			_ = r.lifecycle.TransitionTo(control.StateFaulted, "observation feed failed to start")
			return err
		}
	}

	r.lifecycle.AddWorker()
	go func() {
		defer r.lifecycle.WorkerDone()

		if err := r.lifecycle.TransitionTo(control.StateRunning, "control loop starting"); err != nil {
			r.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		err := r.loop.Run(runCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("control loop fault", ports.Err(err))
			// Release the session before latching Faulted: a faulted
			// regulator holds no listener and no plugin goroutines, so
			// Reset followed by Start gets a clean slate.
			r.teardown()
			_ = r.lifecycle.TransitionTo(control.StateFaulted, err.Error())
		}
	}()

	return nil
}

// Stop gracefully shuts down the regulator.
// The in-flight tick completes and the valve is commanded to the fail-safe
// position as part of the transition. Waits up to 30 seconds before forcing
// shutdown; returns ErrShutdownTimeout if forced.
func (r *Regulator) Stop() error {
	r.mu.Lock()

	if !r.lifecycle.CanStop() {
		r.mu.Unlock()
		return domain.ErrNotRunning
	}

	if err := r.lifecycle.TransitionTo(control.StateStopping, "Stop() called"); err != nil {
		r.mu.Unlock()
		return err
	}

	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	err := r.lifecycle.WaitWithTimeout(control.ShutdownTimeout)

	r.teardown()

	if err != nil {
		_ = r.lifecycle.TransitionTo(control.StateFaulted, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(control.StateStopped, "graceful shutdown")
	}

	return err
}

// teardown cancels the run context and releases the session's observation
// feed and plugins. Both Stop and the control goroutine's fault path call
// it; only the first call per session acts.
func (r *Regulator) teardown() {
	r.mu.Lock()
	already := r.tornDown
	r.tornDown = true
	cancel := r.cancel
	r.mu.Unlock()

	if already {
		return
	}

	if cancel != nil {
		cancel()
	}

	if r.feed != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.feed.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("observation feed shutdown failed", ports.Err(err))
		}
		cancelShutdown()
	}

	r.shutdownPlugins(len(r.plugins) - 1)
}

// shutdownPlugins shuts down plugins [0..last] in reverse order.
func (r *Regulator) shutdownPlugins(last int) {
	shutdownCtx := context.Background()
	for i := last; i >= 0; i-- {
		p := r.plugins[i]
		if err := p.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			r.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// Reset clears the Faulted state back to Stopped after an operator has
// dealt with the underlying failure. The controller re-seeds from the
// valve's physical position on the next Start.
func (r *Regulator) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.CanReset() {
		return domain.ErrNotRunning
	}
	return r.lifecycle.TransitionTo(control.StateStopped, "operator reset")
}

// Close releases hardware held by the regulator (the serial valve port).
// Call after Stop; a closed regulator cannot be restarted.
func (r *Regulator) Close() error {
	if r.hw != nil {
		return r.hw.Close()
	}
	return nil
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Regulator) Status() State {
	return convertState(r.lifecycle.State())
}

// Setpoint returns the current target flow rate.
func (r *Regulator) Setpoint() float64 {
	return r.setpoint.Get()
}

// SetSetpoint updates the target flow rate. Non-finite values are rejected;
// values outside the valid flow range are clamped. The running loop picks
// the new value up at the start of its next tick, never mid-tick.
func (r *Regulator) SetSetpoint(flow float64) error {
	if math.IsNaN(flow) || math.IsInf(flow, 0) {
		return fmt.Errorf("%w: setpoint must be finite", domain.ErrInvalidConfig)
	}

	clamped := clampFlow(r.config, flow)
	if clamped != flow {
		r.logger.Warn("setpoint clamped to valid flow range",
			ports.Float64("requested", flow),
			ports.Float64("applied", clamped))
	}
	r.setpoint.Set(clamped)
	return nil
}

// Snapshot returns the most recent per-tick observation.
// Safe to call concurrently; readers get a copy, never shared state.
func (r *Regulator) Snapshot() Observation {
	return convertObservation(r.loop.Snapshot(), r.Status())
}

// clampFlow bounds a flow value to the configured valid range.
func clampFlow(cfg Config, flow float64) float64 {
	if flow < cfg.FlowMin {
		return cfg.FlowMin
	}
	if flow > cfg.FlowMax {
		return cfg.FlowMax
	}
	return flow
}

// feedView adapts the Regulator to the observation feed's interface,
// exposing the internal snapshot with the lifecycle state filled in.
type feedView struct {
	r *Regulator
}

func (v feedView) Snapshot() domain.Observation {
	obs := v.r.loop.Snapshot()
	obs.State = v.r.Status().String()
	return obs
}

func (v feedView) Setpoint() float64 {
	return v.r.Setpoint()
}

func (v feedView) SetSetpoint(flow float64) error {
	return v.r.SetSetpoint(flow)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler   EventHandler
	lifecycle *control.Lifecycle
}

func (e *eventEmitterWrapper) OnStateChange(previous, current control.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnTick(obs domain.Observation) {
	if e.handler == nil {
		return
	}
	state := StateRunning
	if e.lifecycle != nil {
		state = convertState(e.lifecycle.State())
	}
	e.handler.OnTick(TickEvent{Observation: convertObservation(obs, state)})
}

func (e *eventEmitterWrapper) OnFault(err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnFault(FaultEvent{Err: err, When: time.Now()})
}
