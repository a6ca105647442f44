package procguard

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/logger"
	"github.com/openlock/agent/internal/model"
)

// EventSink receives one event per blocked-process sighting and one
// per kill, so the lockdown engine can broadcast them without the
// guard knowing anything about the engine's channel.
type EventSink interface {
	Emit(event model.Event)
}

// Manager runs the periodic scan/kill cycle for the lifetime of an
// exam session.
type Manager struct {
	blocklist *Blocklist
	sink      EventSink
	ownPID    int32

	ticker   *time.Ticker
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

func NewManager(blocklist *Blocklist, sink EventSink) *Manager {
	return &Manager{
		blocklist: blocklist,
		sink:      sink,
		ownPID:    int32(os.Getpid()),
		stopChan:  make(chan struct{}),
	}
}

// NewManagerFromConfig builds a Manager and its Blocklist from the
// active configuration, applying extra_blocklist/blocklist_patterns/
// allowlist entries on top of the built-in defaults.
func NewManagerFromConfig(cfg config.ProcGuardConfig, sink EventSink) *Manager {
	bl := NewBlocklist()
	bl.LoadDefaults()
	for _, n := range cfg.ExtraBlocklist {
		bl.Add(n)
	}
	for _, p := range cfg.BlocklistPatterns {
		if err := bl.AddPattern(p); err != nil {
			logger.Warn("skipping invalid configured pattern", "pattern", p, "error", err)
		}
	}
	for _, n := range cfg.Allowlist {
		bl.Allow(n)
	}
	return NewManager(bl, sink)
}

// IsBlocked exposes the manager's blocklist decision for callers that
// need to pre-screen a process snapshot without running a full
// scan/kill cycle, e.g. the lockdown engine's pre-check.
func (m *Manager) IsBlocked(name, cmdline, exe string) bool {
	return m.blocklist.IsBlocked(name, cmdline, exe)
}

// Start begins the periodic scan/enforce loop. Safe to call once;
// repeat calls while running are no-ops.
func (m *Manager) Start(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	if interval <= 0 {
		interval = 1 * time.Second
	}

	m.ticker = time.NewTicker(interval)
	m.running = true
	logger.Info("process guard starting", "interval", interval)

	go m.loop()
}

func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.ticker.Stop()
	close(m.stopChan)
	m.running = false
	logger.Info("process guard stopped")
}

func (m *Manager) loop() {
	m.enforce()
	for {
		select {
		case <-m.stopChan:
			return
		case <-m.ticker.C:
			m.enforce()
		}
	}
}

// enforce runs one scan-and-kill cycle. Own PID is always exempt, even
// if the running executable's name happens to match a blocklist entry.
func (m *Manager) enforce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	procs, err := Scan(ctx)
	if err != nil {
		logger.Warn("process guard scan failed", "error", err)
		return
	}

	for _, p := range procs {
		if p.PID == m.ownPID {
			continue
		}
		if !m.blocklist.IsBlocked(p.Name, p.Cmdline, p.Exe) {
			continue
		}

		proc := p
		m.emit(model.EventBlockedProcessDetected, &proc, "")

		if err := Terminate(p.PID); err != nil {
			logger.Error("failed to terminate blocked process", "pid", p.PID, "name", p.Name, "error", err)
			continue
		}
		logger.Warn("blocked process terminated", "pid", p.PID, "name", p.Name)
		m.emit(model.EventBlockedProcessKilled, &proc, "")
	}
}

func (m *Manager) emit(kind model.EventKind, proc *model.ProcessInfo, message string) {
	if m.sink == nil {
		return
	}
	m.sink.Emit(model.Event{
		Kind:    kind,
		Time:    time.Now(),
		Process: proc,
		Message: message,
	})
}
