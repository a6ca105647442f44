// Package kms derives and holds, in memory only, the symmetric key
// used to encrypt the audit trail at rest before it spills to disk.
package kms

import (
	"fmt"
	"sync"
)

// SessionKeyManager holds a workstation-bound master key and, scoped
// from it, the key for whichever exam session is currently running.
// The master key is derived once per process (it is the expensive
// PBKDF2 pass); every call to BindSession derives a fresh session key
// from it without repeating that cost. The key material never leaves
// memory.
type SessionKeyManager struct {
	masterOnce sync.Once
	masterKey  []byte
	masterErr  error

	mu         sync.RWMutex
	sessionKey []byte
	sessionID  string
}

var GlobalKeyManager = &SessionKeyManager{}

func (km *SessionKeyManager) ensureMasterKey() error {
	km.masterOnce.Do(func() {
		fingerprint, err := workstationFingerprint()
		if err != nil {
			km.masterErr = fmt.Errorf("kms: %w", err)
			return
		}
		km.masterKey = deriveMasterKey(fingerprint)
	})
	return km.masterErr
}

// BindSession derives this exam's SM4 key from the workstation's
// master key and the exam's own identity, and makes it the key GetKey
// returns. Calling it again for a later exam in the same long-running
// process replaces the bound key; nothing decrypted under the old
// session's key stays reachable through this manager afterward.
func (km *SessionKeyManager) BindSession(examName, startURL string) error {
	if err := km.ensureMasterKey(); err != nil {
		return err
	}

	km.mu.RLock()
	master := km.masterKey
	km.mu.RUnlock()

	sessionID := examName + "|" + startURL
	sessionKey := deriveSessionKey(master, sessionID)

	km.mu.Lock()
	km.sessionKey = sessionKey
	km.sessionID = sessionID
	km.mu.Unlock()
	return nil
}

// GetKey returns a copy of the currently bound session key. The only
// way callers may read key material out of this manager.
func (km *SessionKeyManager) GetKey() ([]byte, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if len(km.sessionKey) == 0 {
		return nil, fmt.Errorf("kms: no exam session bound")
	}

	keyCopy := make([]byte, len(km.sessionKey))
	copy(keyCopy, km.sessionKey)
	return keyCopy, nil
}

// SessionID reports the identity string the current key is scoped to,
// for the audit trail's own record of which exam a spilled database
// belongs to.
func (km *SessionKeyManager) SessionID() string {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.sessionID
}
