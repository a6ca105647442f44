package confinement

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/openlock/agent/internal/logger"
)

// Linux virtual-terminal ioctl constants from linux/vt.h. golang.org/x/sys/unix
// does not surface these directly since they operate on a small fixed-layout
// struct rather than a plain int.
const (
	vtSetMode = 0x5602
	vtAuto    = 0x00
	vtProcess = 0x01
)

// vtMode mirrors struct vt_mode from linux/vt.h.
type vtMode struct {
	mode   byte
	waitv  byte
	relsig int16
	acqsig int16
	frsig  int16
}

// VTSwitchInhibitor sets the controlling TTY to process-owned mode so
// the kernel stops honoring Ctrl+Alt+F1-F12 terminal switches, and
// restores automatic mode on release.
type VTSwitchInhibitor struct {
	fd int
}

func NewVTSwitchInhibitor() *VTSwitchInhibitor {
	return &VTSwitchInhibitor{fd: -1}
}

func (v *VTSwitchInhibitor) Engage() error {
	fd, err := unix.Open("/dev/tty", unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("confinement: open /dev/tty: %w", err)
	}

	mode := vtMode{mode: vtProcess}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(vtSetMode), uintptr(unsafe.Pointer(&mode)))
	if errno != 0 {
		unix.Close(fd)
		return fmt.Errorf("confinement: VT_SETMODE(process): %w", errno)
	}

	v.fd = fd
	logger.Info("VT switching disabled")
	return nil
}

func (v *VTSwitchInhibitor) Release() error {
	if v.fd < 0 {
		return nil
	}

	mode := vtMode{mode: vtAuto}
	unix.Syscall(unix.SYS_IOCTL, uintptr(v.fd), uintptr(vtSetMode), uintptr(unsafe.Pointer(&mode)))
	err := unix.Close(v.fd)
	v.fd = -1
	logger.Info("VT switching re-enabled")
	return err
}
