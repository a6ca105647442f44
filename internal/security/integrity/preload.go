package integrity

import "os"

// checkLDPreload reports tampered if a library-preload environment
// variable is set and non-empty — the standard Linux mechanism for
// injecting a shared library into every subsequently exec'd process.
func checkLDPreload() bool {
	return os.Getenv("LD_PRELOAD") != ""
}
