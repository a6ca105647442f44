package confinement

import (
	"context"
	"time"

	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/logger"
	"github.com/openlock/agent/internal/model"
)

// EventSink receives shortcut-block and clipboard-violation telemetry.
type EventSink interface {
	Emit(event model.Event)
}

// Confinement aggregates the four sub-guards C3 defines. EngageKiosk
// and EngageInputLockdown split the fixed engage order across the
// process guard monitor's start (kiosk surface first, input lockdown —
// shortcut filter, clipboard scrubber, print suspension — after), so
// the caller can interleave them with the rest of the lockdown
// sequence; Release runs every sub-guard's teardown in the full
// reverse order regardless of how engage was split.
type Confinement struct {
	Kiosk     *Kiosk
	Shortcuts *ShortcutFilter
	Clipboard *ClipboardScrubber
	Print     *PrintSuspension

	sink    EventSink
	engaged bool
}

func NewConfinement(cfg config.ConfinementConfig, sink EventSink) *Confinement {
	c := &Confinement{
		Kiosk:     NewKiosk(cfg.BlockVTSwitch),
		Shortcuts: NewShortcutFilter(),
		Print:     NewPrintSuspension(time.Duration(cfg.PrintSuspendMS) * time.Millisecond),
		sink:      sink,
	}
	c.Clipboard = NewClipboardScrubber(
		time.Duration(cfg.ClipboardScrubMS)*time.Millisecond,
		c.reportClipboardViolation,
	)
	return c
}

// EngageKiosk engages the kiosk (display-server handling, VT switch
// lock) only. It is the first step of the fixed engage order, run before the
// process guard monitor starts. It does not roll back on failure — a
// partially engaged confinement layer is still strictly safer than
// none, and the lockdown engine's PreCheck has already gated on
// integrity before this is ever called.
func (c *Confinement) EngageKiosk(ctx context.Context) error {
	if err := c.Kiosk.Engage(ctx); err != nil {
		logger.Error("confinement: kiosk engage failed", "error", err)
	}
	c.engaged = true
	logger.Info("confinement kiosk surface engaged")
	return nil
}

// EngageInputLockdown brings up the shortcut filter, clipboard
// scrubber, and print suspension. It is the last step of the fixed
// engage order, run after the process guard monitor has started.
func (c *Confinement) EngageInputLockdown() {
	c.Shortcuts.Engage()
	c.Clipboard.Engage()
	c.Print.Engage()
	logger.Info("confinement input lockdown engaged")
}

func (c *Confinement) Release() error {
	if !c.engaged {
		return nil
	}

	c.Print.Release()
	c.Clipboard.Release()
	c.Shortcuts.Release()
	if err := c.Kiosk.Release(); err != nil {
		logger.Error("confinement: kiosk release failed", "error", err)
	}

	c.engaged = false
	logger.Info("confinement layer released")
	return nil
}

// OnKeyEvent is wired into the embedding webview's input hook.
// Returns true if the event was suppressed.
func (c *Confinement) OnKeyEvent(e KeyEvent) bool {
	name, suppressed := c.Shortcuts.Classify(e)
	if !suppressed {
		return false
	}
	c.emit(model.EventShortcutBlocked, name)
	return true
}

func (c *Confinement) reportClipboardViolation() {
	c.emit(model.EventClipboardViolation, "clipboard content detected while scrubber engaged")
}

func (c *Confinement) emit(kind model.EventKind, message string) {
	if c.sink == nil {
		return
	}
	c.sink.Emit(model.Event{
		Kind:     kind,
		Time:     time.Now(),
		Message:  message,
		Shortcut: shortcutOrEmpty(kind, message),
	})
}

func shortcutOrEmpty(kind model.EventKind, message string) string {
	if kind == model.EventShortcutBlocked {
		return message
	}
	return ""
}
