package wayland

import (
	"context"
	"fmt"
	"time"

	"plasmatrack/pkg/idle"

	"github.com/godbus/dbus/v5"
)

const (
	screenSaverDest = "org.freedesktop.ScreenSaver"
	screenSaverPath = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	idleTimeMethod  = "org.freedesktop.ScreenSaver.GetSessionIdleTime"
)

// Watcher implements idle.Watcher for Wayland sessions by polling the
// org.freedesktop.ScreenSaver service on the session bus. KDE Plasma
// exposes the session idle clock there regardless of compositor.
type Watcher struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	tracker *idle.Tracker
	poll    time.Duration
	events  chan idle.Event
	err     error
}

// NewWatcher connects to the session bus and resolves the screensaver
// service object.
func NewWatcher(threshold, pollInterval time.Duration) (*Watcher, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	return &Watcher{
		conn:    conn,
		obj:     conn.Object(screenSaverDest, screenSaverPath),
		tracker: idle.NewTracker(threshold),
		poll:    pollInterval,
		events:  make(chan idle.Event, 4),
	}, nil
}

// Start probes the idle clock once so a session without the
// screensaver service fails at daemon startup, then begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.sample(ctx); err != nil {
		return fmt.Errorf("failed to query session idle time: %w", err)
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idleFor, err := w.sample(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// Session bus is gone; idle state can no longer be
				// trusted.
				w.err = fmt.Errorf("lost session bus connection: %w", err)
				return
			}
			ev, fired := w.tracker.Observe(idleFor)
			if !fired {
				continue
			}
			select {
			case w.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Watcher) sample(ctx context.Context) (time.Duration, error) {
	var seconds uint32
	call := w.obj.CallWithContext(ctx, idleTimeMethod, 0)
	if err := call.Store(&seconds); err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

// Events returns the transition stream.
func (w *Watcher) Events() <-chan idle.Event {
	return w.events
}

// Err returns the terminal error once Events is closed.
func (w *Watcher) Err() error {
	return w.err
}

// Backend returns "wayland"
func (w *Watcher) Backend() string {
	return "wayland"
}

// Close tears down the bus connection.
func (w *Watcher) Close() error {
	return w.conn.Close()
}
