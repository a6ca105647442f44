package model

// IntegrityReport is produced once per performFullCheck call and is
// immutable afterward. Passed must be false if any blocking flag is
// true: VMDetected, DebuggerDetected, BinaryTampered, or
// LDPreloadDetected.
type IntegrityReport struct {
	Passed bool

	VMDetected bool
	VMType     string
	VMConfidencePercent int

	DebuggerDetected bool
	DebuggerType     string

	BinaryTampered bool

	LDPreloadDetected bool

	SuspiciousLibraries []string
	Warnings            []string
}

// Blocking reports whether any flag on the report requires the engine to
// abort engagement (spec.md §4.1 failure semantics — the report is
// always produced; the engine decides whether to refuse engagement).
func (r *IntegrityReport) Blocking() bool {
	return r.VMDetected || r.DebuggerDetected || r.BinaryTampered || r.LDPreloadDetected
}

// Summary renders a one-line human-readable description of whichever
// flags are set, for logging and event messages.
func (r *IntegrityReport) Summary() string {
	if !r.Blocking() {
		return "integrity check passed"
	}
	msg := "integrity violation:"
	if r.VMDetected {
		msg += " vm=" + r.VMType
	}
	if r.DebuggerDetected {
		msg += " debugger=" + r.DebuggerType
	}
	if r.BinaryTampered {
		msg += " binary-tampered"
	}
	if r.LDPreloadDetected {
		msg += " ld-preload"
	}
	return msg
}
