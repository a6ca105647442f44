package sebcrypto

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

const (
	HeaderRequestHash   = "X-SafeExamBrowser-RequestHash"
	HeaderConfigKeyHash = "X-SafeExamBrowser-ConfigKeyHash"
)

// RequestHash computes H(K) = SHA256(UTF-8(Uclean.asString || hex(K)))
// where Uclean is rawURL with its fragment removed. Fragments never
// alter the hash — the fragment is client-side-only and never reaches
// the server, so it must not affect what the server can verify.
func RequestHash(rawURL string, key [32]byte) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Fragment = ""

	msg := u.String() + hex.EncodeToString(key[:])
	sum := sha256.Sum256([]byte(msg))
	return hex.EncodeToString(sum[:]), nil
}

// RequestHeaders builds both SEB request-integrity headers for an
// outbound URL, keyed by the session's BEK and Config Key.
func RequestHeaders(rawURL string, bek, configKey [32]byte) (map[string]string, error) {
	reqHash, err := RequestHash(rawURL, bek)
	if err != nil {
		return nil, err
	}
	cfgHash, err := RequestHash(rawURL, configKey)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		HeaderRequestHash:   reqHash,
		HeaderConfigKeyHash: cfgHash,
	}, nil
}
