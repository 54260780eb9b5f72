package wayland

import (
	"context"
	"os"
	"testing"
	"time"

	"plasmatrack/pkg/idle"
)

func TestWatcherInterface(t *testing.T) {
	var _ idle.Watcher = (*Watcher)(nil)
}

func TestBackendName(t *testing.T) {
	w := &Watcher{}
	if got := w.Backend(); got != "wayland" {
		t.Errorf("Backend() = %q, want %q", got, "wayland")
	}
}

func TestLiveWatcher(t *testing.T) {
	if os.Getenv("DBUS_SESSION_BUS_ADDRESS") == "" {
		t.Skip("no session bus available")
	}

	w, err := NewWatcher(5*time.Second, 100*time.Millisecond)
	if err != nil {
		t.Skipf("session bus not usable: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Skipf("screensaver service not available: %v", err)
	}

	idleFor, err := w.sample(ctx)
	if err != nil {
		t.Fatalf("sample() error: %v", err)
	}
	t.Logf("session idle for %v", idleFor)

	cancel()
	select {
	case _, open := <-w.Events():
		if open {
			// A transition may race the cancel; drain until closed.
			for range w.Events() {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Events() not closed after cancel")
	}
}
