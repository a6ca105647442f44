package sebcrypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// BrowserExamKeyMaterial is the triple derived once per lockdown
// session and held read-only for the lifetime of the exam.
type BrowserExamKeyMaterial struct {
	ExamKeySalt     [32]byte
	ConfigPlistXml  []byte
	BinaryFilesHash [32]byte
}

// DeriveBEK computes rawBEK = HMAC-SHA256(examKeySalt, configPlistXml ||
// hex(binaryFilesHash)).
func DeriveBEK(m BrowserExamKeyMaterial) [32]byte {
	msg := make([]byte, 0, len(m.ConfigPlistXml)+64)
	msg = append(msg, m.ConfigPlistXml...)
	msg = append(msg, []byte(hex.EncodeToString(m.BinaryFilesHash[:]))...)

	mac := hmac.New(sha256.New, m.ExamKeySalt[:])
	mac.Write(msg)
	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}

// ComputeBinaryFilesHash digests the agent executable and every
// dynamically-loadable library that sits beside it, concatenates the
// hex digests in lexicographic path order, and digests the result.
func ComputeBinaryFilesHash(executablePath string) ([32]byte, error) {
	dir := filepath.Dir(executablePath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return [32]byte{}, err
	}

	paths := []string{executablePath}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if isLoadableLibrary(name) {
			p := filepath.Join(dir, name)
			if p != executablePath {
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)

	var concatenated string
	for _, p := range paths {
		digest, err := sha256File(p)
		if err != nil {
			return [32]byte{}, err
		}
		concatenated += hex.EncodeToString(digest[:])
	}

	return sha256.Sum256([]byte(concatenated)), nil
}

// isLoadableLibrary matches libfoo.so, libfoo.so.1, libfoo.so.1.2 and
// so on — the versioned-suffix convention shared libraries use on
// Linux, where filepath.Ext alone only catches the unversioned form.
func isLoadableLibrary(name string) bool {
	return strings.Contains(name, ".so")
}

func sha256File(path string) ([32]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(data), nil
}
