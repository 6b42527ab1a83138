package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (PINCHCTL_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("weight-file", os.Getenv("PINCHCTL_WEIGHT_FILE"), &cfg.WeightFile)
	s.setString("serial-port", os.Getenv("PINCHCTL_SERIAL_PORT"), &cfg.SerialPort)
	s.setString("setpoint-file", os.Getenv("PINCHCTL_SETPOINT_FILE"), &cfg.SetpointFile)
	s.setString("listen", os.Getenv("PINCHCTL_LISTEN_ADDR"), &cfg.ListenAddr)

	if err := s.setIntFromString("baud", os.Getenv("PINCHCTL_BAUD_RATE"), &cfg.BaudRate); err != nil {
		return err
	}
	if err := s.setIntFromString("valve-positions", os.Getenv("PINCHCTL_VALVE_POSITIONS"), &cfg.ValvePositions); err != nil {
		return err
	}

	if err := s.setDuration("interval", os.Getenv("PINCHCTL_INTERVAL"), &cfg.SampleInterval); err != nil {
		return err
	}
	if err := s.setDuration("io-timeout", os.Getenv("PINCHCTL_IO_TIMEOUT"), &cfg.IOTimeout); err != nil {
		return err
	}
	if err := s.setDuration("filter-tau", os.Getenv("PINCHCTL_FILTER_TAU"), &cfg.FilterTimeConstant); err != nil {
		return err
	}
	if err := s.setDuration("stale-after", os.Getenv("PINCHCTL_STALE_AFTER"), &cfg.StaleAfter); err != nil {
		return err
	}

	if err := s.setFloatFromString("setpoint", os.Getenv("PINCHCTL_SETPOINT"), &cfg.Setpoint); err != nil {
		return err
	}
	if err := s.setFloatFromString("kp", os.Getenv("PINCHCTL_KP"), &cfg.Kp); err != nil {
		return err
	}
	if err := s.setFloatFromString("ki", os.Getenv("PINCHCTL_KI"), &cfg.Ki); err != nil {
		return err
	}
	if err := s.setFloatFromString("kd", os.Getenv("PINCHCTL_KD"), &cfg.Kd); err != nil {
		return err
	}
	if err := s.setFloatFromString("max-slew-rate", os.Getenv("PINCHCTL_MAX_SLEW_RATE"), &cfg.MaxSlewRate); err != nil {
		return err
	}
	if err := s.setFloatFromString("flow-max", os.Getenv("PINCHCTL_FLOW_MAX"), &cfg.FlowMax); err != nil {
		return err
	}
	if err := s.setFloatFromString("fail-safe", os.Getenv("PINCHCTL_FAIL_SAFE"), &cfg.FailSafePosition); err != nil {
		return err
	}
	if err := s.setFloatFromString("sim-flow", os.Getenv("PINCHCTL_SIM_FLOW"), &cfg.SimFlowAtOpen); err != nil {
		return err
	}

	s.setBoolFromString("simulate", os.Getenv("PINCHCTL_SIMULATE"), &cfg.Simulate)

	return nil
}
