package domain

import "time"

// Observation is the read-only snapshot published once per tick for
// monitoring. It is written only by the control loop; readers get a copy.
type Observation struct {
	// Timestamp is when the tick that produced this snapshot ran.
	Timestamp time.Time `json:"timestamp"`

	// Setpoint is the desired flow rate in effect for that tick, after
	// clamping to the valid flow range.
	Setpoint float64 `json:"setpoint"`

	// Flow is the estimated flow rate in grams per second.
	Flow float64 `json:"flow"`

	// FlowValid reports whether Flow was usable this tick.
	FlowValid bool `json:"flow_valid"`

	// Command is the normalized valve position last commanded, in [0,1].
	Command float64 `json:"command"`

	// State is the loop lifecycle state name at publish time.
	State string `json:"state"`
}
