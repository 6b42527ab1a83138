package control

import (
	"time"

	"github.com/biofluidics/pinchctl/internal/domain"
)

// Estimator converts consecutive weight samples into a smoothed flow-rate
// estimate. The only cross-tick state it keeps is the last sample and the
// filter value. Not safe for concurrent use; the loop serializes access.
type Estimator struct {
	tau        time.Duration
	minSpacing time.Duration
	staleAfter time.Duration

	last     domain.WeightSample
	haveLast bool
	rate     float64
	primed   bool
}

// NewEstimator creates an estimator with the thresholds from cfg.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{
		tau:        cfg.FilterTimeConstant,
		minSpacing: cfg.MinSampleSpacing,
		staleAfter: cfg.StaleAfter,
	}
}

// Observe folds a new sample into the estimate.
//
// A sample whose Δt from the previous one is at or below the minimum
// spacing (including zero, negative, and duplicate timestamps) carries no
// information: the previous estimate is returned unchanged and marked
// invalid. A Δt beyond the staleness threshold means the sensor stalled;
// the new sample re-baselines the differencer but the gap itself is not
// trusted as a rate.
func (e *Estimator) Observe(s domain.WeightSample) domain.FlowEstimate {
	if !e.haveLast {
		e.last = s
		e.haveLast = true
		return e.Hold(s.Timestamp)
	}

	dt := s.Timestamp.Sub(e.last.Timestamp)
	if dt <= e.minSpacing {
		return e.Hold(e.last.Timestamp)
	}
	if e.staleAfter > 0 && dt > e.staleAfter {
		e.last = s
		return e.Hold(s.Timestamp)
	}

	raw := (s.Mass - e.last.Mass) / dt.Seconds()
	if e.primed {
		e.rate += e.alpha(dt) * (raw - e.rate)
	} else {
		e.rate = raw
		e.primed = true
	}
	e.last = s

	return domain.FlowEstimate{Timestamp: s.Timestamp, Rate: e.rate, Valid: true}
}

// Hold returns the current estimate marked invalid without touching state.
// The loop uses it when the source reports no new sample this tick.
func (e *Estimator) Hold(ts time.Time) domain.FlowEstimate {
	return domain.FlowEstimate{Timestamp: ts, Rate: e.rate, Valid: false}
}

// Reset discards all cross-tick state.
func (e *Estimator) Reset() {
	e.last = domain.WeightSample{}
	e.haveLast = false
	e.rate = 0
	e.primed = false
}

// alpha is the single-pole filter coefficient for an update Δt apart.
func (e *Estimator) alpha(dt time.Duration) float64 {
	if e.tau <= 0 {
		return 1
	}
	return float64(dt) / float64(e.tau+dt)
}
