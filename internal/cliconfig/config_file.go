package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	WeightFile     string `toml:"weight_file"`
	SerialPort     string `toml:"serial_port"`
	BaudRate       int    `toml:"baud_rate"`
	ValvePositions int    `toml:"valve_positions"`

	Setpoint     float64 `toml:"setpoint"`
	SetpointFile string  `toml:"setpoint_file"`

	SampleInterval string `toml:"interval"`
	IOTimeout      string `toml:"io_timeout"`

	Kp float64 `toml:"kp"`
	Ki float64 `toml:"ki"`
	Kd float64 `toml:"kd"`

	MaxSlewRate        float64 `toml:"max_slew_rate"`
	FlowMax            float64 `toml:"flow_max"`
	FilterTimeConstant string  `toml:"filter_time_constant"`
	StaleAfter         string  `toml:"stale_after"`
	FailSafePosition   float64 `toml:"fail_safe_position"`

	Simulate      *bool   `toml:"simulate"`
	SimFlowAtOpen float64 `toml:"sim_flow_at_open"`

	ListenAddr string `toml:"listen_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.pinchctl/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".pinchctl", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("weight-file", fc.WeightFile, &cfg.WeightFile)
	s.setString("serial-port", fc.SerialPort, &cfg.SerialPort)
	s.setString("setpoint-file", fc.SetpointFile, &cfg.SetpointFile)
	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)

	s.setInt("baud", fc.BaudRate, &cfg.BaudRate)
	s.setInt("valve-positions", fc.ValvePositions, &cfg.ValvePositions)

	if err := s.setDuration("interval", fc.SampleInterval, &cfg.SampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("io-timeout", fc.IOTimeout, &cfg.IOTimeout); err != nil {
		return err
	}
	if err := s.setDuration("filter-tau", fc.FilterTimeConstant, &cfg.FilterTimeConstant); err != nil {
		return err
	}
	if err := s.setDuration("stale-after", fc.StaleAfter, &cfg.StaleAfter); err != nil {
		return err
	}

	s.setFloat("setpoint", fc.Setpoint, &cfg.Setpoint)
	s.setFloat("kp", fc.Kp, &cfg.Kp)
	s.setFloat("ki", fc.Ki, &cfg.Ki)
	s.setFloat("kd", fc.Kd, &cfg.Kd)
	s.setFloat("max-slew-rate", fc.MaxSlewRate, &cfg.MaxSlewRate)
	s.setFloat("flow-max", fc.FlowMax, &cfg.FlowMax)
	s.setFloat("fail-safe", fc.FailSafePosition, &cfg.FailSafePosition)
	s.setFloat("sim-flow", fc.SimFlowAtOpen, &cfg.SimFlowAtOpen)

	s.setBool("simulate", fc.Simulate, &cfg.Simulate)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
