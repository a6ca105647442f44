package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openlock/agent/internal/model"
)

func TestTrail_DisabledEmitIsNoop(t *testing.T) {
	trail, err := NewTrail(Options{}, 10, false, "", "")
	if err != nil {
		t.Fatal(err)
	}
	trail.Emit(model.Event{Kind: model.EventBlockedProcessDetected})

	records, err := trail.Export()
	if err != nil {
		t.Fatal(err)
	}
	if records != nil {
		t.Errorf("expected nil export while disabled, got %v", records)
	}
}

func TestTrail_EnabledRoundTripsThroughSpillover(t *testing.T) {
	dir := t.TempDir()
	trail, err := NewTrail(Options{
		DataDir:      dir,
		FileName:     filepath.Base(dir) + ".db",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, 1, true, "trail-roundtrip-exam", "https://exam.example.edu")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	trail.Emit(model.Event{
		Kind:    model.EventBlockedProcessDetected,
		Time:    time.Now(),
		Process: &model.ProcessInfo{PID: 999, Name: "obs"},
	})
	// Second push exceeds memLimit=1, forcing a spill to disk.
	trail.Emit(model.Event{
		Kind: model.EventShortcutBlocked,
		Time: time.Now(),
		Message: "blocked shortcut: Alt+Tab",
	})

	records, err := trail.Export()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records after export, got %d", len(records))
	}
}
