package audit

import (
	"github.com/openlock/agent/internal/model"
	"github.com/openlock/agent/internal/security/gmcipher"
	"github.com/openlock/agent/internal/security/kms"
)

// Trail is the audit subsystem's single external surface: an
// EventSink the lockdown engine and process guard can hand every
// broadcast Event to, whether or not auditing is enabled.
type Trail struct {
	store   *Store
	enabled bool
}

// NewTrail wires the session key manager, the SM4 engine, and the
// SQLite-backed store together. examName and startURL bind the
// derived at-rest key to this exam session, so an audit database left
// over from a previous exam on the same workstation stays unreadable
// once a new session is bound. When enabled is false, Emit is a
// no-op — callers don't need to branch on config themselves.
func NewTrail(dbOpts Options, memLimit int, enabled bool, examName, startURL string) (*Trail, error) {
	if !enabled {
		return &Trail{enabled: false}, nil
	}

	if err := kms.GlobalKeyManager.BindSession(examName, startURL); err != nil {
		return nil, err
	}
	if err := setupDB(dbOpts); err != nil {
		return nil, err
	}

	engine := gmcipher.NewSM4Engine(kms.GlobalKeyManager)
	store, err := NewStore(db, engine, memLimit)
	if err != nil {
		return nil, err
	}

	return &Trail{store: store, enabled: true}, nil
}

// Emit implements procguard.EventSink and doubles as the lockdown
// engine's audit tap.
func (t *Trail) Emit(event model.Event) {
	if !t.enabled {
		return
	}
	_ = t.store.Push(model.FromEvent(event))
}

// Export drains the full trail for a proctor or reviewer to inspect.
func (t *Trail) Export() ([]model.AuditRecord, error) {
	if !t.enabled {
		return nil, nil
	}
	return t.store.Drain()
}

// Close flushes any buffered records before shutdown.
func (t *Trail) Close() error {
	if !t.enabled {
		return nil
	}
	return t.store.Flush()
}
