package confinement

import (
	"context"
	"time"

	"os/exec"

	"github.com/openlock/agent/internal/logger"
)

// PrintSuspension stops the local print spooler for the duration of
// lockdown and restarts it on release. Failure to stop is a warning,
// not a hard error — printing may still be blocked by other means
// (no printers configured, network policy, etc).
type PrintSuspension struct {
	timeout time.Duration
	stopped bool
}

func NewPrintSuspension(timeout time.Duration) *PrintSuspension {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PrintSuspension{timeout: timeout}
}

func (p *PrintSuspension) Engage() {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "systemctl", "stop", "cups.service").Run(); err != nil {
		logger.Warn("could not stop print service, printing may remain available", "error", err)
		return
	}
	p.stopped = true
	logger.Info("print service stopped")
}

func (p *PrintSuspension) Release() {
	if !p.stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := exec.CommandContext(ctx, "systemctl", "start", "cups.service").Run(); err != nil {
		logger.Warn("could not restart print service", "error", err)
	} else {
		logger.Info("print service restarted")
	}
	p.stopped = false
}
