package detector

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewUnknownBackend(t *testing.T) {
	_, err := New("cosmic", 5*time.Second, time.Second)
	if err == nil {
		t.Fatal("New() with unknown backend should fail")
	}
	if !strings.Contains(err.Error(), "cosmic") {
		t.Errorf("error should name the rejected backend, got: %v", err)
	}
}

func TestNewWithoutDisplayServer(t *testing.T) {
	origSessionType := os.Getenv("XDG_SESSION_TYPE")
	origWaylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	origX11Display := os.Getenv("DISPLAY")

	defer func() {
		os.Setenv("XDG_SESSION_TYPE", origSessionType)
		os.Setenv("WAYLAND_DISPLAY", origWaylandDisplay)
		os.Setenv("DISPLAY", origX11Display)
	}()

	os.Unsetenv("XDG_SESSION_TYPE")
	os.Unsetenv("WAYLAND_DISPLAY")
	os.Unsetenv("DISPLAY")

	_, err := New("auto", 5*time.Second, time.Second)
	if err == nil {
		t.Fatal("New(auto) should fail when no display server is detectable")
	}
	t.Logf("New() correctly returned error when no display server detected: %v", err)
}

func TestNewAutoWithSession(t *testing.T) {
	if DetectDisplayServer() == "unknown" {
		t.Skip("no display server in test environment")
	}

	watcher, err := New("auto", 5*time.Second, time.Second)
	if err != nil {
		t.Skipf("display server advertised but not reachable: %v", err)
	}
	defer watcher.Close()

	backend := watcher.Backend()
	t.Logf("Detected idle backend: %s", backend)

	if backend != "x11" && backend != "wayland" {
		t.Errorf("Backend() = %s, want x11 or wayland", backend)
	}
}

func TestDetectDisplayServer(t *testing.T) {
	tests := []struct {
		name           string
		sessionType    string
		waylandDisplay string
		x11Display     string
		expected       string
	}{
		{
			name:           "Wayland session",
			sessionType:    "wayland",
			waylandDisplay: "wayland-0",
			x11Display:     "",
			expected:       "wayland",
		},
		{
			name:           "X11 session",
			sessionType:    "x11",
			waylandDisplay: "",
			x11Display:     ":0",
			expected:       "x11",
		},
		{
			name:           "Unknown session",
			sessionType:    "",
			waylandDisplay: "",
			x11Display:     "",
			expected:       "unknown",
		},
		{
			name:           "Wayland display set",
			sessionType:    "",
			waylandDisplay: "wayland-1",
			x11Display:     "",
			expected:       "wayland",
		},
		{
			name:           "X11 display set",
			sessionType:    "",
			waylandDisplay: "",
			x11Display:     ":1",
			expected:       "x11",
		},
	}

	origSessionType := os.Getenv("XDG_SESSION_TYPE")
	origWaylandDisplay := os.Getenv("WAYLAND_DISPLAY")
	origX11Display := os.Getenv("DISPLAY")

	defer func() {
		os.Setenv("XDG_SESSION_TYPE", origSessionType)
		os.Setenv("WAYLAND_DISPLAY", origWaylandDisplay)
		os.Setenv("DISPLAY", origX11Display)
	}()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("XDG_SESSION_TYPE", tt.sessionType)
			os.Setenv("WAYLAND_DISPLAY", tt.waylandDisplay)
			os.Setenv("DISPLAY", tt.x11Display)

			result := DetectDisplayServer()
			if result != tt.expected {
				t.Errorf("DetectDisplayServer() = %s, want %s", result, tt.expected)
			}
		})
	}
}
