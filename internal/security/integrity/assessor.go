package integrity

import (
	"context"

	"github.com/openlock/agent/internal/model"
)

// AssessorOptions configures which sub-checks run and against what
// baseline. VM detection and debugger detection can each be disabled;
// the self-binary digest, the mapped-library scan and the LD_PRELOAD
// check always run.
type AssessorOptions struct {
	DetectVM            bool
	DetectDebugger      bool
	ExpectedBinaryDigest string
	DigestAlgorithm     string
}

// Assessor implements C1: performFullCheck() -> IntegrityReport, with
// no side effects beyond the debugger self-trace probe.
type Assessor struct {
	opts AssessorOptions
}

func NewAssessor(opts AssessorOptions) *Assessor {
	if opts.DigestAlgorithm == "" {
		opts.DigestAlgorithm = "sha256"
	}
	return &Assessor{opts: opts}
}

// PerformFullCheck runs every enabled sub-check and combines the
// results into a single immutable report. The report is always
// produced; callers decide whether Blocking() should abort engagement.
func (a *Assessor) PerformFullCheck(ctx context.Context) (*model.IntegrityReport, error) {
	report := &model.IntegrityReport{Passed: true}

	if a.opts.DetectVM {
		detected, name, confidence := detectVM(ctx)
		report.VMDetected = detected
		report.VMType = name
		report.VMConfidencePercent = confidence
	}

	if a.opts.DetectDebugger {
		detected, name := detectDebugger()
		report.DebuggerDetected = detected
		report.DebuggerType = name
	}

	exePath, err := GetSelfExecutablePath()
	if err != nil {
		report.Warnings = append(report.Warnings, "could not resolve own executable path: "+err.Error())
	} else {
		tampered, _, err := verifySelfBinary(exePath, a.opts.ExpectedBinaryDigest, a.opts.DigestAlgorithm)
		if err != nil {
			report.Warnings = append(report.Warnings, "self-verification failed to run: "+err.Error())
		} else {
			report.BinaryTampered = tampered
		}
	}

	suspicious, err := detectInjectedLibraries()
	if err != nil {
		report.Warnings = append(report.Warnings, "library scan failed to run: "+err.Error())
	} else if len(suspicious) > 0 {
		report.SuspiciousLibraries = suspicious
	}

	report.LDPreloadDetected = checkLDPreload()

	report.Passed = !report.Blocking()
	return report, nil
}
