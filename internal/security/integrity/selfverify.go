package integrity

import (
	"bufio"
	"os"
	"strings"
)

var legitimateLibraryPrefixes = []string{
	"/usr/lib", "/usr/lib64", "/lib", "/lib64",
	"/usr/local/lib", "/usr/share",
	"/snap/", "/opt/openlock",
}

// verifySelfBinary compares the running executable's digest against an
// expected digest, if one was provisioned. An empty expectedDigest
// skips verification (no baseline to compare against) and reports
// tampered=false.
func verifySelfBinary(exePath, expectedDigest, algorithm string) (tampered bool, currentDigest string, err error) {
	currentDigest, err = ComputeFileDigest(exePath, algorithm)
	if err != nil {
		return false, "", err
	}
	if expectedDigest == "" {
		return false, currentDigest, nil
	}
	return !strings.EqualFold(currentDigest, expectedDigest), currentDigest, nil
}

// detectInjectedLibraries scans /proc/self/maps for mapped shared
// libraries outside the allowlisted legitimate system prefixes.
func detectInjectedLibraries() ([]string, error) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		// No /proc/self/maps means we can't evaluate this probe —
		// treated as no evidence, not tampering.
		return nil, nil
	}
	defer f.Close()

	seen := make(map[string]bool)
	var suspicious []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, ".so") {
			continue
		}
		idx := strings.IndexByte(line, '/')
		if idx < 0 {
			continue
		}
		libPath := strings.TrimSpace(line[idx:])
		if libPath == "" || seen[libPath] {
			continue
		}

		legitimate := false
		for _, prefix := range legitimateLibraryPrefixes {
			if strings.HasPrefix(libPath, prefix) {
				legitimate = true
				break
			}
		}
		if !legitimate {
			seen[libPath] = true
			suspicious = append(suspicious, libPath)
		}
	}

	return suspicious, scanner.Err()
}
