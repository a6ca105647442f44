package procguard

import (
	"os"
	"syscall"
	"time"

	"github.com/openlock/agent/internal/logger"
)

// gracePeriod is how long a blocked process is given to exit cleanly
// after SIGTERM before the guard escalates to SIGKILL.
const gracePeriod = 500 * time.Millisecond

// Terminate sends SIGTERM, waits gracePeriod, then sends SIGKILL if the
// process is still alive. The caller's own PID is never passed here;
// Manager filters it out before this point.
func Terminate(pid int32) error {
	proc, err := os.FindProcess(int(pid))
	if err != nil {
		return err
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		if err == syscall.ESRCH {
			return nil
		}
		logger.Warn("SIGTERM failed, escalating immediately", "pid", pid, "error", err)
		return killHard(proc, pid)
	}

	time.Sleep(gracePeriod)

	if !alive(pid) {
		return nil
	}

	return killHard(proc, pid)
}

func killHard(proc *os.Process, pid int32) error {
	if err := proc.Signal(syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return err
	}
	logger.Warn("process force-killed", "pid", pid)
	return nil
}

// alive probes for process existence via signal 0, the standard
// no-op-but-checks-permission-and-existence trick.
func alive(pid int32) bool {
	proc, err := os.FindProcess(int(pid))
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
