package domain

import "time"

// WeightSample is a single reading from the scale under the receiving vessel.
// Samples are immutable once produced; the source guarantees non-decreasing
// timestamps, but consumers must tolerate duplicates defensively.
type WeightSample struct {
	// Timestamp is when the scale produced the reading.
	Timestamp time.Time

	// Mass is the measured mass in grams. Never negative from a healthy scale.
	Mass float64
}

// FlowEstimate is the smoothed outflow rate derived from consecutive weight
// samples. Rate is signed: negative means inflow or measurement error.
type FlowEstimate struct {
	// Timestamp is the time of the newest sample that produced the estimate.
	Timestamp time.Time

	// Rate is the filtered flow rate in grams (≈ mL for water) per second.
	Rate float64

	// Valid is false when the estimate must not be acted upon: the sensor
	// stalled, samples arrived too close together, or no two distinct
	// samples have been seen yet.
	Valid bool
}
