package cliconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/biofluidics/pinchctl/pkg/pinchctl"
)

// Config holds CLI configuration for pinchctl.
type Config struct {
	WeightFile     string
	SerialPort     string
	BaudRate       int
	ValvePositions int

	Setpoint     float64
	SetpointFile string

	SampleInterval time.Duration
	IOTimeout      time.Duration

	Kp float64
	Ki float64
	Kd float64

	MaxSlewRate        float64
	FlowMax            float64
	FilterTimeConstant time.Duration
	StaleAfter         time.Duration
	FailSafePosition   float64

	Simulate      bool
	SimFlowAtOpen float64

	ListenAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	lib := pinchctl.DefaultConfig()
	return Config{
		SerialPort:         lib.SerialPort,
		BaudRate:           lib.BaudRate,
		ValvePositions:     lib.ValvePositions,
		SampleInterval:     lib.SampleInterval,
		IOTimeout:          lib.IOTimeout,
		Kp:                 lib.Kp,
		Ki:                 lib.Ki,
		Kd:                 lib.Kd,
		MaxSlewRate:        lib.MaxSlewRate,
		FlowMax:            lib.FlowMax,
		FilterTimeConstant: lib.FilterTimeConstant,
		StaleAfter:         lib.StaleAfter,
		FailSafePosition:   lib.FailSafePosition,
		SimFlowAtOpen:      lib.SimFlowAtOpen,
	}
}

// Validate checks the configuration for errors.
// Detailed control-parameter validation happens in the library; this covers
// what the CLI must catch before constructing a regulator.
func (c *Config) Validate() error {
	if !c.Simulate && c.WeightFile == "" {
		return fmt.Errorf("weight-file is required (or --simulate)")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.Setpoint < 0 || c.Setpoint > c.FlowMax {
		return fmt.Errorf("setpoint must be within 0..%g g/s", c.FlowMax)
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("baud rate must be positive")
	}
	if c.ValvePositions <= 0 {
		return fmt.Errorf("valve positions must be positive")
	}
	return nil
}

// LibConfig converts CLI configuration into the library's configuration.
func (c *Config) LibConfig() pinchctl.Config {
	lib := pinchctl.DefaultConfig()
	lib.WeightFile = c.WeightFile
	lib.SerialPort = c.SerialPort
	lib.BaudRate = c.BaudRate
	lib.ValvePositions = c.ValvePositions
	lib.InitialSetpoint = c.Setpoint
	lib.SampleInterval = c.SampleInterval
	lib.IOTimeout = c.IOTimeout
	lib.Kp = c.Kp
	lib.Ki = c.Ki
	lib.Kd = c.Kd
	lib.MaxSlewRate = c.MaxSlewRate
	lib.FlowMax = c.FlowMax
	lib.FilterTimeConstant = c.FilterTimeConstant
	lib.StaleAfter = c.StaleAfter
	lib.FailSafePosition = c.FailSafePosition
	lib.Simulate = c.Simulate
	lib.SimFlowAtOpen = c.SimFlowAtOpen
	lib.ListenAddr = c.ListenAddr
	return lib
}

// Logger returns the CLI's console logger.
func Logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if non-zero and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f == 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
