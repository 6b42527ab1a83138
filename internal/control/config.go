package control

import (
	"fmt"
	"math"
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
)

// Config holds the parameters of one control session.
// It is read-only for the duration of a run; to change it, stop the loop
// and start a new session.
type Config struct {
	// SampleInterval is the fixed tick cadence.
	SampleInterval time.Duration

	// IOTimeout bounds a single source read or actuator command.
	IOTimeout time.Duration

	// Kp, Ki, Kd are the PID gains. Output units are normalized valve
	// position, error units are grams per second.
	Kp, Ki, Kd float64

	// OutputMin and OutputMax bound the actuator command.
	OutputMin, OutputMax float64

	// IntegralMin and IntegralMax bound the integral accumulator
	// (in error·seconds) for anti-windup.
	IntegralMin, IntegralMax float64

	// MaxSlewRate bounds |Δoutput| per second. Zero disables slew limiting.
	MaxSlewRate float64

	// FlowMin and FlowMax define the valid flow range; setpoints are
	// clamped into it before each tick.
	FlowMin, FlowMax float64

	// FilterTimeConstant is the estimator's single-pole low-pass time
	// constant. Zero disables smoothing.
	FilterTimeConstant time.Duration

	// MinSampleSpacing is the Δt at or below which two samples are treated
	// as the same reading.
	MinSampleSpacing time.Duration

	// StaleAfter is the Δt beyond which the sensor is considered stalled.
	// Zero disables the staleness check.
	StaleAfter time.Duration

	// FailSafePosition is the valve command issued on fault or stop.
	FailSafePosition float64

	// CommandDeadband skips actuation when the command differs from the
	// valve's last position by less than this. Zero sends every tick.
	CommandDeadband float64
}

// Validate checks the configuration for errors.
// All violations are reported wrapping domain.ErrInvalidConfig.
func (c Config) Validate() error {
	if c.SampleInterval <= 0 {
		return fmt.Errorf("%w: sample interval must be positive", domain.ErrInvalidConfig)
	}
	if c.IOTimeout <= 0 {
		return fmt.Errorf("%w: io timeout must be positive", domain.ErrInvalidConfig)
	}
	for name, g := range map[string]float64{"kp": c.Kp, "ki": c.Ki, "kd": c.Kd} {
		if math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: gain %s is not finite", domain.ErrInvalidConfig, name)
		}
	}
	if c.OutputMin > c.OutputMax {
		return fmt.Errorf("%w: output bounds %v > %v", domain.ErrInvalidConfig, c.OutputMin, c.OutputMax)
	}
	if c.IntegralMin > c.IntegralMax {
		return fmt.Errorf("%w: integral bounds %v > %v", domain.ErrInvalidConfig, c.IntegralMin, c.IntegralMax)
	}
	if c.FlowMin > c.FlowMax {
		return fmt.Errorf("%w: flow range %v > %v", domain.ErrInvalidConfig, c.FlowMin, c.FlowMax)
	}
	if c.MaxSlewRate < 0 || math.IsNaN(c.MaxSlewRate) {
		return fmt.Errorf("%w: max slew rate must be non-negative", domain.ErrInvalidConfig)
	}
	if c.CommandDeadband < 0 || math.IsNaN(c.CommandDeadband) {
		return fmt.Errorf("%w: command deadband must be non-negative", domain.ErrInvalidConfig)
	}
	if c.FilterTimeConstant < 0 || c.MinSampleSpacing < 0 || c.StaleAfter < 0 {
		return fmt.Errorf("%w: time constants must be non-negative", domain.ErrInvalidConfig)
	}
	if c.StaleAfter > 0 && c.StaleAfter <= c.MinSampleSpacing {
		return fmt.Errorf("%w: stale-after must exceed min sample spacing", domain.ErrInvalidConfig)
	}
	if c.FailSafePosition < c.OutputMin || c.FailSafePosition > c.OutputMax {
		return fmt.Errorf("%w: fail-safe position %v outside output bounds", domain.ErrInvalidConfig, c.FailSafePosition)
	}
	return nil
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
