package kms

import (
	"crypto/hmac"

	"github.com/tjfoc/gmsm/sm3"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// masterKeySalt anchors the workstation-bound master key to this
	// build. Only the master key uses it; the key actually handed to
	// the SM4 engine is always further scoped to one exam session.
	masterKeySalt = "OpenLock_AuditTrail_S@lt_v1"

	// masterKeyLen is oversized relative to SM4's 128-bit key so the
	// session HMAC step below has a full SM3 digest's worth of entropy
	// to draw on rather than truncating an already-minimal key.
	masterKeyLen = 32

	// SM4KeyLen is SM4's fixed 128-bit key length in bytes.
	SM4KeyLen = 16

	// Iterations is the PBKDF2 round count for the master key. It only
	// runs once per process, at the first exam of the session, so the
	// cost of a higher count is paid once rather than per exam.
	Iterations = 4096
)

// deriveMasterKey runs PBKDF2-HMAC-SM3 over the workstation fingerprint
// to produce the per-machine secret every exam session's key is
// scoped from. It never leaves this package and is never used to
// encrypt anything directly.
func deriveMasterKey(fingerprint string) []byte {
	return pbkdf2.Key(
		[]byte(fingerprint),
		[]byte(masterKeySalt),
		Iterations,
		masterKeyLen,
		sm3.New,
	)
}

// deriveSessionKey scopes the master key to one exam session with a
// single HMAC-SM3 pass, keyed by the master key and fed the session's
// own identity. Two exams run back to back on the same workstation get
// two unrelated SM4 keys, so a spilled audit database from an earlier
// exam stays opaque even to something that has since recovered the
// current session's key.
func deriveSessionKey(masterKey []byte, sessionSalt string) []byte {
	mac := hmac.New(sm3.New, masterKey)
	mac.Write([]byte(sessionSalt))
	return mac.Sum(nil)[:SM4KeyLen]
}
