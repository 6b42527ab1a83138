package setpointwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/biofluidics/pinchctl/pkg/log"
	"github.com/biofluidics/pinchctl/pkg/pinchctl"
)

// mockSetpoint records every value pushed by the plugin.
type mockSetpoint struct {
	mu     sync.Mutex
	values []float64
}

func (m *mockSetpoint) Setpoint() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.values) == 0 {
		return 0
	}
	return m.values[len(m.values)-1]
}

func (m *mockSetpoint) SetSetpoint(flow float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = append(m.values, flow)
	return nil
}

func (m *mockSetpoint) applied() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.values...)
}

// waitForValue polls until the latest applied setpoint equals want.
func waitForValue(t *testing.T, sp *mockSetpoint, want float64) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if sp.Setpoint() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("setpoint = %v, want %v (applied: %v)", sp.Setpoint(), want, sp.applied())
}

func initPlugin(t *testing.T, p *Plugin, sp *mockSetpoint) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	err := p.Initialize(ctx, pinchctl.PluginConfig{
		Setpoint: sp,
		Logger:   log.NewNoopLogger(),
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() {
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
}

func TestPlugin_AppliesInitialValue(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "setpoint")
	if err := os.WriteFile(path, []byte("12.5\n"), 0644); err != nil {
		t.Fatalf("Failed to create setpoint file: %v", err)
	}

	sp := &mockSetpoint{}
	plugin := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	initPlugin(t, plugin, sp)

	waitForValue(t, sp, 12.5)
}

func TestPlugin_AppliesFileChanges(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "setpoint")
	if err := os.WriteFile(path, []byte("5"), 0644); err != nil {
		t.Fatalf("Failed to create setpoint file: %v", err)
	}

	sp := &mockSetpoint{}
	plugin := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	initPlugin(t, plugin, sp)

	waitForValue(t, sp, 5)

	if err := os.WriteFile(path, []byte("42.25\n"), 0644); err != nil {
		t.Fatalf("Failed to update setpoint file: %v", err)
	}
	waitForValue(t, sp, 42.25)
}

func TestPlugin_CreatedAfterStart(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "setpoint")

	sp := &mockSetpoint{}
	plugin := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	initPlugin(t, plugin, sp)

	// File does not exist yet; nothing should have been applied.
	time.Sleep(50 * time.Millisecond)
	if got := sp.applied(); len(got) != 0 {
		t.Fatalf("applied = %v before file existed", got)
	}

	if err := os.WriteFile(path, []byte("8"), 0644); err != nil {
		t.Fatalf("Failed to create setpoint file: %v", err)
	}
	waitForValue(t, sp, 8)
}

func TestPlugin_IgnoresMalformedContent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "setpoint")
	if err := os.WriteFile(path, []byte("20"), 0644); err != nil {
		t.Fatalf("Failed to create setpoint file: %v", err)
	}

	sp := &mockSetpoint{}
	plugin := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	initPlugin(t, plugin, sp)

	waitForValue(t, sp, 20)

	// Garbage must leave the last good value in place.
	if err := os.WriteFile(path, []byte("not-a-number"), 0644); err != nil {
		t.Fatalf("Failed to update setpoint file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := sp.Setpoint(); got != 20 {
		t.Errorf("setpoint = %v after malformed write, want 20", got)
	}
}

func TestPlugin_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "setpoint")
	if err := os.WriteFile(path, []byte("15"), 0644); err != nil {
		t.Fatalf("Failed to create setpoint file: %v", err)
	}

	sp := &mockSetpoint{}
	plugin := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	initPlugin(t, plugin, sp)

	waitForValue(t, sp, 15)
	before := len(sp.applied())

	if err := os.WriteFile(filepath.Join(tmpDir, "unrelated"), []byte("99"), 0644); err != nil {
		t.Fatalf("Failed to create unrelated file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := len(sp.applied()); got != before {
		t.Errorf("applied count = %d after unrelated write, want %d", got, before)
	}
}

func TestPlugin_NoPathDisables(t *testing.T) {
	sp := &mockSetpoint{}
	plugin := New(Config{})
	initPlugin(t, plugin, sp)

	time.Sleep(50 * time.Millisecond)
	if got := sp.applied(); len(got) != 0 {
		t.Errorf("applied = %v with no path configured", got)
	}
}
