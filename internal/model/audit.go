package model

import "time"

// AuditRecord is one entry in the local security-event audit trail. It
// captures operator-facing telemetry about the workstation during a
// locked-down session, never exam content or browsing history.
type AuditRecord struct {
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	PID     int32     `json:"pid,omitempty"`
	Process string    `json:"process,omitempty"`
}

// FromEvent projects a broadcast Event into an audit-trail entry. Not
// every EventKind is worth recording; callers filter before calling
// this if they want a subset.
func FromEvent(e Event) AuditRecord {
	rec := AuditRecord{
		Time:    e.Time,
		Kind:    e.Kind.String(),
		Message: e.Message,
	}
	if e.Process != nil {
		rec.PID = e.Process.PID
		rec.Process = e.Process.Name
	}
	if e.Shortcut != "" && rec.Message == "" {
		rec.Message = "blocked shortcut: " + e.Shortcut
	}
	return rec
}
