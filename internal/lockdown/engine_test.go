package lockdown

import (
	"context"
	"testing"
	"time"

	"github.com/openlock/agent/internal/config"
	"github.com/openlock/agent/internal/model"
)

func init() {
	// The engine reads config.Get() for defaults; tests need a config
	// loaded even though there is no file on disk.
	_ = config.LoadConfig("")
}

func testExamConfig(exitPassword string) *model.ExamConfiguration {
	return &model.ExamConfiguration{
		ExamName:     "unit-test-exam",
		StartURL:     "https://lms.example.edu/exam",
		ExitPassword: exitPassword,
	}
}

func TestEngine_InitializeRequiresStartURL(t *testing.T) {
	e := NewEngine()
	err := e.Initialize(&model.ExamConfiguration{})
	if err == nil {
		t.Fatal("expected an error for a configuration with no start URL")
	}
	if e.State() != model.StateError {
		t.Errorf("expected StateError, got %v", e.State())
	}
}

func TestEngine_InitializeReturnsToIdle(t *testing.T) {
	e := NewEngine()
	if err := e.Initialize(testExamConfig("")); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if e.State() != model.StateIdle {
		t.Errorf("expected StateIdle after successful initialize, got %v", e.State())
	}
}

func TestEngine_ReleaseLockdownRejectsWrongSecret(t *testing.T) {
	e := NewEngine()
	if err := e.Initialize(testExamConfig("correct-horse")); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.EngageLockdown(ctx); err != nil {
		// Under a headless CI sandbox the pre-check may itself fail
		// (VM detection, missing /proc entries); that's acceptable —
		// what this test cares about is the secret gate, not engage
		// succeeding here.
		t.Skipf("engage did not reach Locked in this environment: %v", err)
	}

	if err := e.ReleaseLockdown(ctx, "wrong-secret"); err == nil {
		t.Error("expected release to fail with wrong secret")
	}
	if e.State() == model.StateIdle {
		t.Error("state must not have transitioned to Idle on secret mismatch")
	}

	if err := e.ReleaseLockdown(ctx, "correct-horse"); err != nil {
		t.Errorf("release with correct secret failed: %v", err)
	}
}

type collectingObserver struct {
	events []model.Event
}

func (c *collectingObserver) Emit(e model.Event) {
	c.events = append(c.events, e)
}

func TestEngine_EmitsStateChangedEvents(t *testing.T) {
	e := NewEngine()
	obs := &collectingObserver{}
	e.AddObserver(obs)

	if err := e.Initialize(testExamConfig("")); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, ev := range obs.events {
		if ev.Kind == model.EventStateChanged {
			found = true
		}
	}
	if !found {
		t.Error("expected at least one StateChanged event during initialize")
	}
}
