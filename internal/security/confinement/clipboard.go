package confinement

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/openlock/agent/internal/logger"
)

// ClipboardScrubber clears the clipboard and the primary selection on a
// short timer while engaged. Content found in the clipboard at a tick
// is reported as a violation before that tick's clear; a change between
// ticks is not seen until the next tick. No find buffer is cleared.
type ClipboardScrubber struct {
	interval time.Duration
	onViolation func()

	ticker   *time.Ticker
	stopChan chan struct{}
	running  bool
	mu       sync.Mutex
}

func NewClipboardScrubber(interval time.Duration, onViolation func()) *ClipboardScrubber {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ClipboardScrubber{
		interval:    interval,
		onViolation: onViolation,
		stopChan:    make(chan struct{}),
	}
}

func (c *ClipboardScrubber) Engage() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.clear()

	c.ticker = time.NewTicker(c.interval)
	c.running = true
	go c.loop()
	logger.Info("clipboard scrubber active", "interval", c.interval)
}

func (c *ClipboardScrubber) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}
	c.ticker.Stop()
	close(c.stopChan)
	c.running = false
	logger.Info("clipboard scrubber released")
}

func (c *ClipboardScrubber) loop() {
	for {
		select {
		case <-c.stopChan:
			return
		case <-c.ticker.C:
			if c.peekNonEmpty() && c.onViolation != nil {
				c.onViolation()
			}
			c.clear()
		}
	}
}

// peekNonEmpty reports whether the system clipboard holds any content
// right before a scheduled clear — meaning something was copied into
// it since the last tick despite the scrubber being engaged.
func (c *ClipboardScrubber) peekNonEmpty() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var out []byte
	if DetectDisplayServer() == DisplayServerWayland {
		out, _ = exec.CommandContext(ctx, "wl-paste").Output()
	} else {
		out, _ = exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-o").Output()
	}
	return len(out) > 0
}

// clear best-effort clears the system clipboard and primary selection
// via whichever selection tool is available on this
// display server. Absence of every tool is tolerated; a workstation
// with no clipboard tooling installed has nothing to scrub.
func (c *ClipboardScrubber) clear() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	switch DetectDisplayServer() {
	case DisplayServerWayland:
		runQuiet(ctx, "wl-copy", "--clear")
		runQuiet(ctx, "wl-copy", "--primary", "--clear")
	default:
		runQuiet(ctx, "xclip", "-selection", "clipboard", "-i", "/dev/null")
		runQuiet(ctx, "xclip", "-selection", "primary", "-i", "/dev/null")
		runQuiet(ctx, "xsel", "-b", "-c")
		runQuiet(ctx, "xsel", "-p", "-c")
	}
}

func runQuiet(ctx context.Context, name string, args ...string) {
	_ = exec.CommandContext(ctx, name, args...).Run()
}
