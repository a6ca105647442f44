package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/tjfoc/gmsm/sm3"
)

// ComputeFileDigest hashes a file with the configured self-digest
// algorithm ("sha256" or "sm3"), returning the hex-encoded digest.
// sm3 is offered as an alternate algorithm for deployments that must
// avoid dependence on SHA-2 for policy reasons; sha256 is the default.
func ComputeFileDigest(filePath, algorithm string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var h interface {
		io.Writer
		Sum([]byte) []byte
	}
	switch algorithm {
	case "sm3":
		h = sm3.New()
	default:
		h = sha256.New()
	}

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
