package integrity

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetSelfExecutablePath returns the absolute, symlink-resolved path to
// this process's own binary. /proc/self/exe (what os.Executable reads
// on Linux) is itself a symlink, and the operator may also have
// launched the agent through a symlink — we want the real file on disk
// so hashing and mapped-library scans agree with what the kernel
// actually loaded.
func GetSelfExecutablePath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("integrity: get executable path: %w", err)
	}

	realPath, err := filepath.EvalSymlinks(exePath)
	if err != nil {
		return "", fmt.Errorf("integrity: resolve symlink: %w", err)
	}

	absPath, err := filepath.Abs(realPath)
	if err != nil {
		return "", fmt.Errorf("integrity: absolute path: %w", err)
	}

	return absPath, nil
}
