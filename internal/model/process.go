package model

// ProcessInfo is a snapshot of one OS process. Snapshots are ephemeral —
// produced fresh by every scan, never diffed against a previous scan (a
// process observed in scan N and absent in scan N+1 is simply gone; no
// cross-scan tracking is required).
type ProcessInfo struct {
	PID     int32
	Name    string
	Cmdline string
	Exe     string
	UID     int32
}
