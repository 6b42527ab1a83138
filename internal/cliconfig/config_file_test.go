package cliconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				WeightFile:     "/test/weight.log",
				SerialPort:     "/dev/ttyACM0",
				SampleInterval: "500ms",
				Setpoint:       25,
				Kp:             0.02,
				Simulate:       &trueVal,
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				WeightFile:     "/test/weight.log",
				SerialPort:     "/dev/ttyACM0",
				SampleInterval: 500 * time.Millisecond,
				Setpoint:       25,
				Kp:             0.02,
				Simulate:       true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				WeightFile: "/config/weight.log",
				SerialPort: "/config/tty",
			},
			changed: map[string]bool{"weight-file": true},
			initial: Config{
				WeightFile: "/flag/weight.log",
			},
			expected: Config{
				WeightFile: "/flag/weight.log", // unchanged because flag was set
				SerialPort: "/config/tty",
			},
			wantErr: false,
		},
		{
			name: "handles all field types correctly",
			fileConfig: FileConfig{
				WeightFile:         "/w.log",
				SerialPort:         "/dev/ttyUSB1",
				BaudRate:           19200,
				ValvePositions:     200,
				Setpoint:           10,
				SetpointFile:       "/sp",
				SampleInterval:     "2s",
				IOTimeout:          "100ms",
				Kp:                 0.01,
				Ki:                 0.005,
				Kd:                 0.01,
				MaxSlewRate:        0.5,
				FlowMax:            80,
				FilterTimeConstant: "3s",
				StaleAfter:         "10s",
				FailSafePosition:   0.1,
				SimFlowAtOpen:      44,
				ListenAddr:         "127.0.0.1:9090",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				WeightFile:         "/w.log",
				SerialPort:         "/dev/ttyUSB1",
				BaudRate:           19200,
				ValvePositions:     200,
				Setpoint:           10,
				SetpointFile:       "/sp",
				SampleInterval:     2 * time.Second,
				IOTimeout:          100 * time.Millisecond,
				Kp:                 0.01,
				Ki:                 0.005,
				Kd:                 0.01,
				MaxSlewRate:        0.5,
				FlowMax:            80,
				FilterTimeConstant: 3 * time.Second,
				StaleAfter:         10 * time.Second,
				FailSafePosition:   0.1,
				SimFlowAtOpen:      44,
				ListenAddr:         "127.0.0.1:9090",
			},
			wantErr: false,
		},
		{
			name: "invalid duration",
			fileConfig: FileConfig{
				SampleInterval: "not-a-duration",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyFileConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyFileConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	// Create a temporary TOML file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.toml")

	tomlContent := `
weight_file = "/var/lib/scale/weight.log"
serial_port = "/dev/ttyUSB1"
interval = "2s"
setpoint = 22.5
kp = 0.01
simulate = true
`

	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}

	if fc.WeightFile != "/var/lib/scale/weight.log" {
		t.Errorf("WeightFile = %v, want /var/lib/scale/weight.log", fc.WeightFile)
	}
	if fc.SerialPort != "/dev/ttyUSB1" {
		t.Errorf("SerialPort = %v, want /dev/ttyUSB1", fc.SerialPort)
	}
	if fc.SampleInterval != "2s" {
		t.Errorf("SampleInterval = %v, want 2s", fc.SampleInterval)
	}
	if fc.Setpoint != 22.5 {
		t.Errorf("Setpoint = %v, want 22.5", fc.Setpoint)
	}
	if fc.Kp != 0.01 {
		t.Errorf("Kp = %v, want 0.01", fc.Kp)
	}
	if fc.Simulate == nil || *fc.Simulate != true {
		t.Errorf("Simulate = %v, want true", fc.Simulate)
	}
}

func TestLoadFileConfig_InvalidFile(t *testing.T) {
	_, err := LoadFileConfig("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("LoadFileConfig() expected error for nonexistent file")
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.toml")

	invalidContent := `
weight_file = "/test"
this is not valid toml
`

	if err := os.WriteFile(configPath, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err := LoadFileConfig(configPath)
	if err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()

	// Should return a path containing .pinchctl
	if path != "" && !strings.Contains(path, ".pinchctl") {
		t.Errorf("DefaultConfigPath() = %v, should contain .pinchctl", path)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	existingFile := filepath.Join(tmpDir, "exists.txt")

	if err := os.WriteFile(existingFile, []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if !FileExists(existingFile) {
		t.Error("FileExists() = false, want true for existing file")
	}

	if FileExists(filepath.Join(tmpDir, "nonexistent.txt")) {
		t.Error("FileExists() = true, want false for nonexistent file")
	}
}
