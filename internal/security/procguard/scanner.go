package procguard

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/openlock/agent/internal/model"
)

// Scan enumerates every visible process into a snapshot slice. Errors
// reading an individual process's metadata (it may have exited between
// the PID listing and the field reads) are tolerated; that process is
// simply skipped.
func Scan(ctx context.Context) ([]model.ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := make([]model.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cmdline, _ := p.CmdlineWithContext(ctx)
		exe, _ := p.ExeWithContext(ctx)
		uids, _ := p.UidsWithContext(ctx)

		var uid int32 = -1
		if len(uids) > 0 {
			uid = uids[0]
		}

		snapshot = append(snapshot, model.ProcessInfo{
			PID:     p.Pid,
			Name:    name,
			Cmdline: cmdline,
			Exe:     exe,
			UID:     uid,
		})
	}
	return snapshot, nil
}
