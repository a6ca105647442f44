package integrity

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

var knownDebuggerNames = map[string]bool{
	"gdb":     true,
	"lldb":    true,
	"strace":  true,
	"ltrace":  true,
	"radare2": true,
	"r2":      true,
	"ida":     true,
}

// detectDebugger is the logical OR of three probes, matching the
// escalating specificity of the source: tracer-pid field, then a
// self-trace attempt, then a scan of running process names.
func detectDebugger() (bool, string) {
	if detected, name := checkTracerPid(); detected {
		return true, name
	}
	if detected, name := checkPtraceSelf(); detected {
		return true, name
	}
	if detected, name := checkDebuggerProcesses(); detected {
		return true, name
	}
	return false, ""
}

func checkTracerPid() (bool, string) {
	data, err := os.ReadFile("/proc/self/status")
	if err != nil {
		return false, ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "TracerPid:") {
			continue
		}
		field := strings.TrimSpace(strings.TrimPrefix(line, "TracerPid:"))
		tracerPid, err := strconv.Atoi(field)
		if err != nil || tracerPid == 0 {
			return false, ""
		}
		comm, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", tracerPid))
		if err != nil {
			return true, fmt.Sprintf("PID %d", tracerPid)
		}
		return true, strings.TrimSpace(string(comm))
	}
	return false, ""
}

// checkPtraceSelf attempts PTRACE_TRACEME on the calling thread. This
// fails if a tracer is already attached, which is our positive signal;
// on success we immediately detach so we don't leave ourselves in a
// traced state. ptrace is a per-thread operation on Linux, so the
// calling goroutine is pinned to its OS thread for the duration.
func checkPtraceSelf() (bool, string) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	_, _, errno := unix.Syscall(unix.SYS_PTRACE, unix.PTRACE_TRACEME, 0, 0)
	var err error
	if errno != 0 {
		err = errno
	}
	if err != nil {
		if err == unix.EPERM || err == syscall.EPERM {
			return true, "ptrace attached"
		}
		return false, ""
	}
	_ = unix.PtraceDetach(os.Getpid())
	return false, ""
}

func checkDebuggerProcesses() (bool, string) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return false, ""
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(e.Name()); err != nil {
			continue
		}
		comm, err := os.ReadFile(fmt.Sprintf("/proc/%s/comm", e.Name()))
		if err != nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(string(comm)))
		if knownDebuggerNames[name] {
			return true, name
		}
	}
	return false, ""
}
