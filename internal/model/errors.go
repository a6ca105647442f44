// Package model holds the data types shared across the lockdown and
// attestation engine: configuration, reports, process snapshots, and the
// structured error/event vocabulary the engine surfaces to its caller.
package model

import "fmt"

// ErrorKind enumerates the error taxonomy from the lockdown engine's
// error handling design. Each kind carries a fixed disposition — abort
// init, abort engage, warn-and-continue, or report-without-transition —
// decided by the engine, not by the error itself.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	ErrConfigOpenFailed
	ErrConfigParseFailed
	ErrSebDecryptPasswordRequired
	ErrSebAuthenticationFailed
	ErrSebFormatUnknown
	ErrIntegrityVMDetected
	ErrIntegrityDebuggerDetected
	ErrIntegrityBinaryTampered
	ErrIntegrityPreloadDetected
	ErrBlockedProcessesPresent
	ErrConfinementSubsystemFailed
	ErrExitSecretMismatch
)

// String returns the wire/log name of the error kind, matching the
// identifiers spec.md §7 uses verbatim.
func (k ErrorKind) String() string {
	switch k {
	case ErrConfigOpenFailed:
		return "ConfigOpenFailed"
	case ErrConfigParseFailed:
		return "ConfigParseFailed"
	case ErrSebDecryptPasswordRequired:
		return "SebDecryptPasswordRequired"
	case ErrSebAuthenticationFailed:
		return "SebAuthenticationFailed"
	case ErrSebFormatUnknown:
		return "SebFormatUnknown"
	case ErrIntegrityVMDetected:
		return "IntegrityVMDetected"
	case ErrIntegrityDebuggerDetected:
		return "IntegrityDebuggerDetected"
	case ErrIntegrityBinaryTampered:
		return "IntegrityBinaryTampered"
	case ErrIntegrityPreloadDetected:
		return "IntegrityPreloadDetected"
	case ErrBlockedProcessesPresent:
		return "BlockedProcessesPresent"
	case ErrConfinementSubsystemFailed:
		return "ConfinementSubsystemFailed"
	case ErrExitSecretMismatch:
		return "ExitSecretMismatch"
	default:
		return "Unknown"
	}
}

// Disposition describes what the engine does upon encountering an error
// of this kind.
type Disposition int

const (
	DispositionAbortInit Disposition = iota
	DispositionAbortEngage
	DispositionWarnContinue
	DispositionReportOnly
)

// Disposition returns the fixed handling policy for this error kind, per
// spec.md §7's table.
func (k ErrorKind) Disposition() Disposition {
	switch k {
	case ErrConfigOpenFailed, ErrConfigParseFailed,
		ErrSebDecryptPasswordRequired, ErrSebAuthenticationFailed, ErrSebFormatUnknown:
		return DispositionAbortInit
	case ErrIntegrityVMDetected, ErrIntegrityDebuggerDetected,
		ErrIntegrityBinaryTampered, ErrIntegrityPreloadDetected,
		ErrBlockedProcessesPresent:
		return DispositionAbortEngage
	case ErrConfinementSubsystemFailed:
		return DispositionWarnContinue
	case ErrExitSecretMismatch:
		return DispositionReportOnly
	default:
		return DispositionReportOnly
	}
}

// StructuredError is the event payload surfaced for every error kind: a
// kind plus a human-readable message, never a bare error string. The
// engine surfaces only the first error encountered in a phase.
type StructuredError struct {
	Kind    ErrorKind
	Message string
}

func (e *StructuredError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a StructuredError with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *StructuredError {
	return &StructuredError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
