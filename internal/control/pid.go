package control

import (
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
)

// PID maps (setpoint, estimated flow) to a bounded valve command.
// Anti-windup is by clamping the integral accumulator before it is used, so
// a saturated output never keeps accumulating. Output changes are slew
// limited after range clamping. Not safe for concurrent use; the loop
// serializes access.
type PID struct {
	cfg Config

	integral   float64
	prevErr    float64
	prevOutput float64
	primed     bool
}

// NewPID validates cfg and returns a controller seeded at the fail-safe
// position. Malformed configuration is rejected here, never at call time.
func NewPID(cfg Config) (*PID, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &PID{cfg: cfg}
	p.Reset(cfg.FailSafePosition)
	return p, nil
}

// Update advances the controller by dt and returns the bounded command.
//
// An invalid estimate or non-positive dt freezes the controller: no term
// advances and the previous output is returned unchanged. A tick either
// fully commits its state updates or fully rejects them.
func (p *PID) Update(setpoint float64, est domain.FlowEstimate, dt time.Duration) float64 {
	if !est.Valid || dt <= 0 {
		return p.prevOutput
	}
	dts := dt.Seconds()
	err := setpoint - est.Rate

	integral := clamp(p.integral+err*dts, p.cfg.IntegralMin, p.cfg.IntegralMax)

	// Derivative on error; skipped on the first update after a reset to
	// avoid a spike against the zeroed error memory.
	var deriv float64
	if p.primed {
		deriv = p.cfg.Kd * (err - p.prevErr) / dts
	}

	out := p.cfg.Kp*err + p.cfg.Ki*integral + deriv
	out = clamp(out, p.cfg.OutputMin, p.cfg.OutputMax)

	if p.cfg.MaxSlewRate > 0 {
		maxStep := p.cfg.MaxSlewRate * dts
		out = clamp(out, p.prevOutput-maxStep, p.prevOutput+maxStep)
	}

	p.integral = integral
	p.prevErr = err
	p.prevOutput = out
	p.primed = true
	return out
}

// Reset zeroes the integral accumulator and error memory and re-seeds the
// previous output from the valve's last known physical position, so the
// first command after a reset cannot jump discontinuously.
func (p *PID) Reset(position float64) {
	p.integral = 0
	p.prevErr = 0
	p.prevOutput = clamp(position, p.cfg.OutputMin, p.cfg.OutputMax)
	p.primed = false
}

// LastOutput returns the most recent bounded command.
func (p *PID) LastOutput() float64 {
	return p.prevOutput
}
