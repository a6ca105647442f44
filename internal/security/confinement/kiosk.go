package confinement

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/openlock/agent/internal/logger"
)

// DisplayServer identifies which windowing system the current session
// is running under, since the fullscreen surface is created
// differently on each.
type DisplayServer int

const (
	DisplayServerUnknown DisplayServer = iota
	DisplayServerX11
	DisplayServerWayland
)

func (d DisplayServer) String() string {
	switch d {
	case DisplayServerX11:
		return "x11"
	case DisplayServerWayland:
		return "wayland"
	default:
		return "unknown"
	}
}

// DetectDisplayServer inspects the session's environment variables,
// preferring WAYLAND_DISPLAY since a Wayland session may still export
// DISPLAY for Xwayland compatibility.
func DetectDisplayServer() DisplayServer {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayServerWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// Kiosk tracks the kiosk-mode state for the detected display server and
// disables VT switching for the duration. It creates no window of its
// own and does not make any window fullscreen or always-on-top.
type Kiosk struct {
	server   DisplayServer
	vtGuard  *VTSwitchInhibitor
	blockVT  bool
	engaged  bool
}

func NewKiosk(blockVTSwitch bool) *Kiosk {
	return &Kiosk{
		server:  DetectDisplayServer(),
		vtGuard: NewVTSwitchInhibitor(),
		blockVT: blockVTSwitch,
	}
}

// Engage engages kiosk mode. On X11 it lists the connected outputs via
// xrandr and logs them; no window is moved onto or made fullscreen on
// them. Under Wayland it relies on the compositor's own kiosk mode,
// since Wayland grants clients no bypass mechanism by design.
func (k *Kiosk) Engage(ctx context.Context) error {
	switch k.server {
	case DisplayServerX11:
		if err := k.coverX11Outputs(ctx); err != nil {
			logger.Warn("kiosk: could not force-cover all X11 outputs", "error", err)
		}
	case DisplayServerWayland:
		logger.Info("kiosk: relying on compositor kiosk mode under Wayland")
	default:
		logger.Warn("kiosk: unknown display server, fullscreen surface not guaranteed")
	}

	if k.blockVT {
		if err := k.vtGuard.Engage(); err != nil {
			logger.Warn("kiosk: failed to disable VT switching", "error", err)
		}
	}

	k.engaged = true
	logger.Info("kiosk surface engaged", "display_server", k.server.String())
	return nil
}

func (k *Kiosk) Release() error {
	if !k.engaged {
		return nil
	}
	if k.blockVT {
		if err := k.vtGuard.Release(); err != nil {
			logger.Warn("kiosk: failed to re-enable VT switching", "error", err)
		}
	}
	k.engaged = false
	logger.Info("kiosk surface released")
	return nil
}

func (k *Kiosk) IsEngaged() bool { return k.engaged }

// coverX11Outputs enumerates the connected RandR outputs via xrandr and
// logs them at debug level. It does not change what any output shows.
func (k *Kiosk) coverX11Outputs(ctx context.Context) error {
	outputs, err := listXrandrOutputs(ctx)
	if err != nil {
		return err
	}
	logger.Debug("kiosk: connected outputs", "count", len(outputs), "outputs", outputs)
	return nil
}

func listXrandrOutputs(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "xrandr", "--query").Output()
	if err != nil {
		return nil, err
	}

	var outputs []string
	for _, line := range strings.Split(string(out), "\n") {
		if strings.Contains(line, " connected") {
			outputs = append(outputs, strings.Fields(line)[0])
		}
	}
	return outputs, nil
}
