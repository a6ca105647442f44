package integrity

import (
	"context"
	"sync"
	"time"

	"github.com/openlock/agent/internal/logger"
)

// Monitor runs the Assessor on a periodic cadence once the exam is
// active, delivering every result to a Reporter. It does not itself
// decide engagement; that's the lockdown engine's job from the initial
// PreCheck report.
type Monitor struct {
	assessor *Assessor
	reporter Reporter

	ticker   *time.Ticker
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

func NewMonitor(assessor *Assessor, reporter Reporter) *Monitor {
	if reporter == nil {
		reporter = &DefaultConsoleReporter{}
	}
	return &Monitor{
		assessor: assessor,
		reporter: reporter,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic rescan. Safe to call once; subsequent
// calls while already running are no-ops.
func (m *Monitor) Start(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.ticker = time.NewTicker(interval)
	m.running = true
	logger.Info("integrity monitor starting", "interval", interval)

	go m.loop()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.ticker.Stop()
	close(m.stopChan)
	m.running = false
	logger.Info("integrity monitor stopped")
}

func (m *Monitor) loop() {
	for {
		select {
		case <-m.stopChan:
			return
		case <-m.ticker.C:
			m.check()
		}
	}
}

func (m *Monitor) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	report, err := m.assessor.PerformFullCheck(ctx)
	if err != nil {
		logger.Warn("integrity check failed to run", "error", err)
		return
	}
	m.reporter.Report(report)
}
