package lockdown

import (
	"time"

	"github.com/openlock/agent/internal/model"
)

// integrityReporter adapts the engine's broadcast channel to the
// integrity monitor's Reporter interface.
type integrityReporter struct {
	engine *Engine
}

func (r *integrityReporter) Report(report *model.IntegrityReport) {
	if report.Passed {
		return
	}
	r.engine.Emit(model.Event{
		Kind:    model.EventIntegrityViolation,
		Time:    time.Now(),
		Message: report.Summary(),
	})
}

// engineSink adapts the engine's broadcast channel to the process
// guard's and confinement layer's EventSink interfaces — both just
// need an Emit(model.Event) method, so one adapter serves both.
type engineSink struct {
	engine *Engine
}

func (s *engineSink) Emit(event model.Event) {
	s.engine.Emit(event)
}
