package integrity

import (
	"fmt"

	"github.com/openlock/agent/internal/model"
)

// Reporter receives integrity events observed by the continuous
// monitor. Callers register their own implementation (e.g. one that
// feeds the lockdown engine's event channel); DefaultConsoleReporter
// is a fallback for standalone tooling.
type Reporter interface {
	Report(report *model.IntegrityReport)
}

type DefaultConsoleReporter struct{}

func (r *DefaultConsoleReporter) Report(report *model.IntegrityReport) {
	if report.Passed {
		return
	}
	fmt.Printf("[INTEGRITY] vm=%v(%s) debugger=%v(%s) tampered=%v preload=%v suspicious=%v\n",
		report.VMDetected, report.VMType,
		report.DebuggerDetected, report.DebuggerType,
		report.BinaryTampered, report.LDPreloadDetected,
		report.SuspiciousLibraries)
}
