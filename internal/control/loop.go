package control

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
	"github.com/biofluidics/pinchctl/internal/ports"
)

// TickEventEmitter is called from the loop goroutine on each published tick
// and when a hard fault latches. Implementations must return quickly.
type TickEventEmitter interface {
	OnTick(obs domain.Observation)
	OnFault(err error)
}

// Loop drives the estimator and controller at a fixed cadence. It is the
// sole writer of the published observation and of all controller state;
// ticks are serialized by construction, and a tick that outruns the sample
// interval causes missed ticks to be skipped and logged, never run
// concurrently.
type Loop struct {
	cfg       Config
	source    ports.WeightSource
	actuator  ports.ValveActuator
	setpoint  *Setpoint
	estimator *Estimator
	pid       *PID
	logger    ports.Logger
	emitter   TickEventEmitter

	lastTick  time.Time
	commanded bool

	snapshot atomic.Pointer[domain.Observation]
}

// NewLoop creates a control loop with the given collaborators.
// Returns an error if cfg is invalid.
func NewLoop(
	cfg Config,
	source ports.WeightSource,
	actuator ports.ValveActuator,
	setpoint *Setpoint,
	logger ports.Logger,
	emitter TickEventEmitter,
) (*Loop, error) {
	pid, err := NewPID(cfg)
	if err != nil {
		return nil, err
	}
	return &Loop{
		cfg:       cfg,
		source:    source,
		actuator:  actuator,
		setpoint:  setpoint,
		estimator: NewEstimator(cfg),
		pid:       pid,
		logger:    logger,
		emitter:   emitter,
	}, nil
}

// Run executes ticks until ctx is canceled or a hard fault occurs.
//
// On cancellation the in-flight tick completes, the valve is commanded to
// the fail-safe position, and ctx.Err() is returned. On a sensor or
// actuator hard failure the valve is commanded to fail-safe and the fault
// error is returned; the caller latches the Faulted state and stops ticking
// until an explicit reset.
func (l *Loop) Run(ctx context.Context) error {
	// Seed the session: controller output starts at the valve's current
	// physical position, estimator state is discarded.
	l.pid.Reset(l.actuator.LastPosition())
	l.estimator.Reset()
	l.lastTick = time.Time{}
	l.commanded = false

	ticker := time.NewTicker(l.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.failSafe("stop requested")
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := l.tick(ctx, start); err != nil {
				l.logger.Error("tick fault", ports.Err(err))
				if l.emitter != nil {
					l.emitter.OnFault(err)
				}
				l.failSafe(err.Error())
				return err
			}
			// The ticker drops missed fires while tick() runs; note the
			// overrun so operators can see cadence violations.
			if over := time.Since(start) - l.cfg.SampleInterval; over > 0 {
				l.logger.Warn("tick overran sample interval, missed ticks skipped",
					ports.Duration("overrun", over),
					ports.Duration("interval", l.cfg.SampleInterval),
				)
			}
		}
	}
}

// tick runs one control cycle. The setpoint is read exactly once at the
// start, so a change arriving mid-tick takes effect only on the next tick.
func (l *Loop) tick(ctx context.Context, now time.Time) error {
	setpoint := clamp(l.setpoint.Get(), l.cfg.FlowMin, l.cfg.FlowMax)

	readCtx, cancelRead := context.WithTimeout(ctx, l.cfg.IOTimeout)
	sample, err := l.source.Read(readCtx)
	cancelRead()

	var est domain.FlowEstimate
	switch {
	case err == nil:
		est = l.estimator.Observe(sample)
	case errors.Is(err, domain.ErrNoSample) || errors.Is(err, context.DeadlineExceeded):
		// Stale read: hold the last output and keep ticking.
		est = l.estimator.Hold(now)
	case errors.Is(err, context.Canceled):
		// Stop in progress; Run commands fail-safe on the way out.
		return nil
	default:
		return fmt.Errorf("read weight: %w", err)
	}

	var dt time.Duration
	if !l.lastTick.IsZero() {
		dt = now.Sub(l.lastTick)
	}
	l.lastTick = now

	cmd := l.pid.Update(setpoint, est, dt)

	// Deadband: re-sending a near-identical position only wears the valve.
	// The first command of a session always goes out.
	if l.commanded && math.Abs(cmd-l.actuator.LastPosition()) < l.cfg.CommandDeadband {
		l.publish(now, setpoint, est, l.actuator.LastPosition())
		return nil
	}

	cmdCtx, cancelCmd := context.WithTimeout(ctx, l.cfg.IOTimeout)
	err = l.actuator.Command(cmdCtx, cmd)
	cancelCmd()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("command valve: %w", err)
	}
	l.commanded = true

	l.publish(now, setpoint, est, cmd)
	return nil
}

// publish stores the tick snapshot and notifies the emitter.
func (l *Loop) publish(now time.Time, setpoint float64, est domain.FlowEstimate, cmd float64) {
	obs := &domain.Observation{
		Timestamp: now,
		Setpoint:  setpoint,
		Flow:      est.Rate,
		FlowValid: est.Valid,
		Command:   cmd,
	}
	l.snapshot.Store(obs)
	if l.emitter != nil {
		l.emitter.OnTick(*obs)
	}
}

// failSafe commands the configured safe position. It uses a fresh context
// so a canceled run context cannot leave the valve mid-travel.
func (l *Loop) failSafe(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.IOTimeout)
	defer cancel()

	if err := l.actuator.Command(ctx, l.cfg.FailSafePosition); err != nil {
		l.logger.Error("fail-safe command failed",
			ports.Err(err),
			ports.Float64("position", l.cfg.FailSafePosition),
		)
		return
	}
	l.logger.Info("valve commanded to fail-safe position",
		ports.Float64("position", l.cfg.FailSafePosition),
		ports.String("reason", reason),
	)
}

// Snapshot returns the most recently published observation.
// Safe to call concurrently with Run.
func (l *Loop) Snapshot() domain.Observation {
	if obs := l.snapshot.Load(); obs != nil {
		return *obs
	}
	return domain.Observation{}
}

// LastPosition returns the valve's last commanded physical position.
func (l *Loop) LastPosition() float64 {
	return l.actuator.LastPosition()
}
