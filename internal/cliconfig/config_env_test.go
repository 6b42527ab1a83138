package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"PINCHCTL_WEIGHT_FILE": "/env/weight.log",
				"PINCHCTL_SERIAL_PORT": "/dev/ttyACM1",
				"PINCHCTL_INTERVAL":    "250ms",
				"PINCHCTL_SETPOINT":    "18.5",
				"PINCHCTL_BAUD_RATE":   "19200",
				"PINCHCTL_SIMULATE":    "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				WeightFile:     "/env/weight.log",
				SerialPort:     "/dev/ttyACM1",
				SampleInterval: 250 * time.Millisecond,
				Setpoint:       18.5,
				BaudRate:       19200,
				Simulate:       true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"PINCHCTL_WEIGHT_FILE": "/env/weight.log",
				"PINCHCTL_SERIAL_PORT": "/env/tty",
			},
			changed: map[string]bool{"weight-file": true},
			initial: Config{
				WeightFile: "/flag/weight.log",
			},
			expected: Config{
				WeightFile: "/flag/weight.log",
				SerialPort: "/env/tty",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"PINCHCTL_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"PINCHCTL_BAUD_RATE": "not-a-number",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "returns error for invalid float",
			envVars: map[string]string{
				"PINCHCTL_SETPOINT": "not-a-float",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "parses boolean shorthand",
			envVars: map[string]string{
				"PINCHCTL_SIMULATE": "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Simulate: true,
			},
			wantErr: false,
		},
		{
			name: "false boolean overrides initial",
			envVars: map[string]string{
				"PINCHCTL_SIMULATE": "false",
			},
			changed: map[string]bool{},
			initial: Config{Simulate: true},
			expected: Config{
				Simulate: false,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		WeightFile: "/file/weight.log",
		SerialPort: "/file/tty",
		Simulate:   &trueVal,
	}

	os.Setenv("PINCHCTL_WEIGHT_FILE", "/env/weight.log")
	os.Setenv("PINCHCTL_SERIAL_PORT", "/env/tty")
	os.Setenv("PINCHCTL_LISTEN_ADDR", "127.0.0.1:9090")
	defer func() {
		os.Unsetenv("PINCHCTL_WEIGHT_FILE")
		os.Unsetenv("PINCHCTL_SERIAL_PORT")
		os.Unsetenv("PINCHCTL_LISTEN_ADDR")
	}()

	changed := map[string]bool{
		"weight-file": true, // CLI flag was set
	}

	cfg := Config{
		WeightFile: "/cli/weight.log", // This should remain (CLI wins)
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	// Verify precedence: CLI > Env > File
	if cfg.WeightFile != "/cli/weight.log" {
		t.Errorf("WeightFile = %v, want /cli/weight.log (CLI should win)", cfg.WeightFile)
	}
	if cfg.SerialPort != "/env/tty" {
		t.Errorf("SerialPort = %v, want /env/tty (env should override file)", cfg.SerialPort)
	}
	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Errorf("ListenAddr = %v, want 127.0.0.1:9090 (env should set)", cfg.ListenAddr)
	}
	if cfg.Simulate != true {
		t.Errorf("Simulate = %v, want true (file should set)", cfg.Simulate)
	}
}
