package utils

import (
	"fmt"
	"time"
)

// FormatDuration renders d as NhNmNs. Zero-valued leading and trailing
// units are omitted and interior zeros kept: 1h0m1s, 1h1m, 1m, 0s.
// Sub-second precision is truncated; negative durations render as 0s.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	out := ""
	if hours > 0 {
		out += fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 || (hours > 0 && seconds > 0) {
		out += fmt.Sprintf("%dm", minutes)
	}
	if seconds > 0 {
		out += fmt.Sprintf("%ds", seconds)
	}
	if out == "" {
		out = "0s"
	}
	return out
}
