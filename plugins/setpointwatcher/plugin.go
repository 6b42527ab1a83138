// Package setpointwatcher provides setpoint file monitoring for pinchctl.
// When enabled, it watches a file containing a single flow-rate value and
// applies changes to the running regulator, so operators can retune a
// dosing run by editing one file.
package setpointwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/biofluidics/pinchctl/pkg/pinchctl"
)

// Plugin implements setpoint file watching.
// It monitors the configured file and pushes the parsed flow rate to the
// regulator whenever the file changes.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	path          string
	debounceDelay time.Duration

	// Runtime state
	setpoint pinchctl.SetpointWriter
	logger   pinchctl.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the setpoint watcher plugin.
type Config struct {
	// Path is the file holding the target flow rate as a single decimal
	// number in g/s. Required.
	Path string

	// DebounceDelay is the delay to wait after a file change before applying.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
// Path must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new setpoint watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}

	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "setpointwatcher"
}

// Initialize sets up the plugin and starts the file watcher.
func (p *Plugin) Initialize(ctx context.Context, cfg pinchctl.PluginConfig) error {
	p.mu.Lock()
	p.setpoint = cfg.Setpoint
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" {
		p.logger.Warn("Setpoint watcher disabled: no file path configured")
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("Setpoint watcher plugin initialized")

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the setpoint watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	return nil
}

// watchLoop watches the setpoint file's directory for changes.
// Editors replace files rather than rewriting them in place, so watching
// the directory survives rename-and-create cycles.
func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		p.logger.Error("Setpoint watcher: failed to create watcher")
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		p.logger.Error("Setpoint watcher: failed to watch directory")
		// Still apply whatever the file holds right now.
		p.applySetpoint()
		return
	}

	// Apply the initial value if the file already exists.
	if _, err := os.Stat(p.path); err == nil {
		p.applySetpoint()
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceApply(p.debounceDelay)

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("Setpoint watcher: watcher error")
		}
	}
}

// debounceApply coalesces bursts of file events into one apply.
func (p *Plugin) debounceApply(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(delay, p.applySetpoint)
}

// applySetpoint reads the file and pushes the parsed value to the regulator.
// Parse failures leave the current setpoint untouched.
func (p *Plugin) applySetpoint() {
	flow, err := p.readSetpoint()
	if err != nil {
		p.logger.Error("Setpoint watcher: failed to read setpoint file")
		return
	}

	if err := p.setpoint.SetSetpoint(flow); err != nil {
		p.logger.Error("Setpoint watcher: regulator rejected setpoint")
		return
	}

	p.logger.Info("Setpoint watcher: applied setpoint update")
}

func (p *Plugin) readSetpoint() (float64, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}

	flow, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse setpoint: %w", err)
	}
	return flow, nil
}
