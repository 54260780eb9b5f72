package detector

import (
	"fmt"
	"os"
	"time"

	"plasmatrack/pkg/idle"
	"plasmatrack/pkg/integrations/wayland"
	"plasmatrack/pkg/integrations/x11"
)

// New builds the idle watcher for the requested backend. "auto" probes
// the running session and picks whichever backend answers.
func New(backend string, threshold, pollInterval time.Duration) (idle.Watcher, error) {
	switch backend {
	case "x11":
		return x11.NewWatcher(threshold, pollInterval)
	case "wayland":
		return wayland.NewWatcher(threshold, pollInterval)
	case "auto", "":
		return autodetect(threshold, pollInterval)
	default:
		return nil, fmt.Errorf("unknown idle backend %q (want auto, x11 or wayland)", backend)
	}
}

func autodetect(threshold, pollInterval time.Duration) (idle.Watcher, error) {
	if DetectDisplayServer() == "wayland" {
		w, werr := wayland.NewWatcher(threshold, pollInterval)
		if werr == nil {
			return w, nil
		}
		// Some Wayland sessions still run XWayland with a working
		// screensaver extension.
		x, xerr := x11.NewWatcher(threshold, pollInterval)
		if xerr == nil {
			return x, nil
		}
		return nil, fmt.Errorf("no idle backend available: wayland: %v; x11: %v", werr, xerr)
	}

	if os.Getenv("DISPLAY") != "" {
		return x11.NewWatcher(threshold, pollInterval)
	}

	return nil, fmt.Errorf("no display server detected; set the idle backend explicitly")
}

func DetectDisplayServer() string {
	sessionType := os.Getenv("XDG_SESSION_TYPE")
	waylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	x11Display := os.Getenv("DISPLAY")

	if sessionType == "wayland" || waylandDisplay != "" {
		return "wayland"
	}

	if sessionType == "x11" || x11Display != "" {
		return "x11"
	}

	return "unknown"
}
