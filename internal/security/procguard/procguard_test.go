package procguard

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openlock/agent/internal/model"
)

type recordingSink struct {
	events []model.Event
}

func (r *recordingSink) Emit(event model.Event) {
	r.events = append(r.events, event)
}

func TestBlocklist_DefaultsMatchKnownName(t *testing.T) {
	bl := NewBlocklist()
	bl.LoadDefaults()

	if !bl.IsBlocked("obs", "", "") {
		t.Error("expected 'obs' to be blocked by default category screen_capture")
	}
	if bl.IsBlocked("no-such-thing-9000", "", "") {
		t.Error("did not expect an arbitrary name to be blocked")
	}
}

func TestBlocklist_AllowlistOverridesBuiltins(t *testing.T) {
	bl := NewBlocklist()
	bl.LoadDefaults()
	bl.Allow("firefox")

	if bl.IsBlocked("firefox", "", "") {
		t.Error("allowlisted name must never be reported as blocked")
	}
}

func TestBlocklist_PatternMatchesCmdline(t *testing.T) {
	bl := NewBlocklist()
	if err := bl.AddPattern(`screen.?record`); err != nil {
		t.Fatal(err)
	}

	if !bl.IsBlocked("custom-tool", "/usr/bin/custom-tool --ScreenRecord", "") {
		t.Error("expected case-insensitive pattern match against cmdline")
	}
}

func TestBlocklist_ExeBasenameMatch(t *testing.T) {
	bl := NewBlocklist()
	bl.Add("konsole")

	if !bl.IsBlocked("some-wrapper", "", "/usr/bin/konsole") {
		t.Error("expected exe basename match even when process name differs")
	}
}

func TestManager_NeverTerminatesOwnPID(t *testing.T) {
	bl := NewBlocklist()
	// Deliberately block the test binary's own name, to prove the own-pid
	// exemption wins over any name match.
	self, err := os.Executable()
	if err == nil {
		bl.Add(filepath.Base(self))
	}

	sink := &recordingSink{}
	mgr := NewManager(bl, sink)

	mgr.enforce()

	for _, e := range sink.events {
		if e.Process != nil && e.Process.PID == mgr.ownPID {
			t.Fatalf("manager attempted to act on its own PID: %+v", e)
		}
	}
}

func TestManager_StartStopLifecycle(t *testing.T) {
	bl := NewBlocklist()
	bl.LoadDefaults()
	mgr := NewManager(bl, &recordingSink{})

	mgr.Start(20 * time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	mgr.Stop()

	// Stop must be idempotent-safe against a second call.
	mgr.Stop()
}
