package pinchctl

import (
	"fmt"
	"time"

	"github.com/biofluidics/pinchctl/internal/control"
	"github.com/biofluidics/pinchctl/internal/domain"
)

// Hardware defaults matching the bench rig.
const (
	// DefaultValvePositions is the pinch valve's step count for full travel.
	DefaultValvePositions = 400

	// DefaultSerialPort is where the valve controller usually enumerates.
	DefaultSerialPort = "/dev/ttyUSB0"

	// DefaultBaudRate is the valve controller's fixed line speed.
	DefaultBaudRate = 9600

	// DefaultSimFlowAtOpen is the simulated rig's flow with the valve fully
	// open: 400 steps at the bench calibration of 1/9 g/s per step.
	DefaultSimFlowAtOpen = 400.0 / 9.0
)

// Config holds the configuration for a flow regulator.
// Use DefaultConfig or SetDefaults to fill unset fields, then Validate.
// Configuration is consumed at Start and never re-read mid-run.
type Config struct {
	// SampleInterval is the control loop cadence.
	SampleInterval time.Duration

	// IOTimeout bounds one scale read or one valve command within a tick.
	IOTimeout time.Duration

	// Kp, Ki, Kd are the PID gains mapping flow error (g/s) to normalized
	// valve position.
	Kp float64
	Ki float64
	Kd float64

	// OutputMin and OutputMax bound the valve command.
	OutputMin float64
	OutputMax float64

	// IntegralMin and IntegralMax bound the integral accumulator for
	// anti-windup, in (g/s)·s.
	IntegralMin float64
	IntegralMax float64

	// MaxSlewRate bounds how fast the command may change, per second.
	// Zero disables slew limiting.
	MaxSlewRate float64

	// FlowMin and FlowMax define the valid flow range in g/s; setpoints
	// are clamped into it.
	FlowMin float64
	FlowMax float64

	// FilterTimeConstant smooths the raw weight-difference rate.
	FilterTimeConstant time.Duration

	// MinSampleSpacing treats samples closer than this as duplicates.
	MinSampleSpacing time.Duration

	// StaleAfter declares the sensor stalled beyond this sample gap.
	StaleAfter time.Duration

	// FailSafePosition is commanded on fault and on stop.
	FailSafePosition float64

	// CommandDeadband suppresses re-sending near-identical commands.
	CommandDeadband float64

	// InitialSetpoint is the target flow rate at start.
	InitialSetpoint float64

	// Simulate runs against the in-memory rig instead of hardware.
	Simulate bool

	// SimFlowAtOpen is the simulated flow with the valve fully open.
	SimFlowAtOpen float64

	// WeightFile is the scale's append-only log. Required unless Simulate
	// is set or a custom source is injected.
	WeightFile string

	// SerialPort, BaudRate and ValvePositions describe the valve line.
	SerialPort     string
	BaudRate       int
	ValvePositions int

	// ListenAddr serves the observation feed when non-empty.
	ListenAddr string
}

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields with values matching the bench rig:
// 1 s update rate, a 0–100 g/s flow range, and gains scaled from the
// tuning that ran in valve-step units.
func (c *Config) SetDefaults() {
	if c.SampleInterval == 0 {
		c.SampleInterval = time.Second
	}
	if c.IOTimeout == 0 {
		c.IOTimeout = 250 * time.Millisecond
	}
	if c.Kp == 0 && c.Ki == 0 && c.Kd == 0 {
		c.Kp = 2.0 / DefaultValvePositions
		c.Ki = 1.0 / DefaultValvePositions
		c.Kd = 2.0 / DefaultValvePositions
	}
	if c.OutputMin == 0 && c.OutputMax == 0 {
		c.OutputMax = 1
	}
	if c.IntegralMin == 0 && c.IntegralMax == 0 {
		c.IntegralMin = -200
		c.IntegralMax = 200
	}
	if c.MaxSlewRate == 0 {
		c.MaxSlewRate = 0.25
	}
	if c.FlowMin == 0 && c.FlowMax == 0 {
		c.FlowMax = 100
	}
	if c.FilterTimeConstant == 0 {
		c.FilterTimeConstant = 2 * time.Second
	}
	if c.MinSampleSpacing == 0 {
		c.MinSampleSpacing = 10 * time.Millisecond
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = 5 * time.Second
	}
	if c.CommandDeadband == 0 {
		c.CommandDeadband = 1.0 / DefaultValvePositions
	}
	if c.SimFlowAtOpen == 0 {
		c.SimFlowAtOpen = DefaultSimFlowAtOpen
	}
	if c.SerialPort == "" {
		c.SerialPort = DefaultSerialPort
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ValvePositions == 0 {
		c.ValvePositions = DefaultValvePositions
	}
}

// Validate checks the configuration, wrapping domain.ErrInvalidConfig on
// every violation.
func (c Config) Validate() error {
	if err := c.controlConfig().Validate(); err != nil {
		return err
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate must be positive", domain.ErrInvalidConfig)
	}
	if c.ValvePositions <= 0 {
		return fmt.Errorf("%w: valve positions must be positive", domain.ErrInvalidConfig)
	}
	if c.Simulate && c.SimFlowAtOpen <= 0 {
		return fmt.Errorf("%w: simulated flow at open must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

// controlConfig maps the public configuration onto the loop's own.
func (c Config) controlConfig() control.Config {
	return control.Config{
		SampleInterval:     c.SampleInterval,
		IOTimeout:          c.IOTimeout,
		Kp:                 c.Kp,
		Ki:                 c.Ki,
		Kd:                 c.Kd,
		OutputMin:          c.OutputMin,
		OutputMax:          c.OutputMax,
		IntegralMin:        c.IntegralMin,
		IntegralMax:        c.IntegralMax,
		MaxSlewRate:        c.MaxSlewRate,
		FlowMin:            c.FlowMin,
		FlowMax:            c.FlowMax,
		FilterTimeConstant: c.FilterTimeConstant,
		MinSampleSpacing:   c.MinSampleSpacing,
		StaleAfter:         c.StaleAfter,
		FailSafePosition:   c.FailSafePosition,
		CommandDeadband:    c.CommandDeadband,
	}
}
