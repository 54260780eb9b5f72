package x11

import (
	"context"
	"fmt"
	"time"

	"plasmatrack/pkg/idle"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"
)

// Watcher implements idle.Watcher for X11 sessions using the
// MIT-SCREEN-SAVER extension's ms-since-user-input counter.
type Watcher struct {
	conn    *xgb.Conn
	root    xproto.Drawable
	tracker *idle.Tracker
	poll    time.Duration
	events  chan idle.Event
	err     error
}

// NewWatcher connects to the X server and verifies the screensaver
// extension is present.
func NewWatcher(threshold, pollInterval time.Duration) (*Watcher, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	if err := screensaver.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("MIT-SCREEN-SAVER extension unavailable: %w", err)
	}

	root := xproto.Setup(conn).DefaultScreen(conn).Root

	return &Watcher{
		conn:    conn,
		root:    xproto.Drawable(root),
		tracker: idle.NewTracker(threshold),
		poll:    pollInterval,
		events:  make(chan idle.Event, 4),
	}, nil
}

// Start probes the idle counter once so a broken display fails at
// daemon startup, then begins polling.
func (w *Watcher) Start(ctx context.Context) error {
	if _, err := w.sample(); err != nil {
		return fmt.Errorf("failed to query X idle time: %w", err)
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
			idleFor, err := w.sample()
			if err != nil {
				// Connection to the display is gone; idle state can no
				// longer be trusted.
				w.err = fmt.Errorf("lost X server connection: %w", err)
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

func (w *Watcher) sample() (time.Duration, error) {
	reply, err := screensaver.QueryInfo(w.conn, w.root).Reply()
	if err != nil {
		return 0, err
	}
	return time.Duration(reply.MsSinceUserInput) * time.Millisecond, nil
}

// Events returns the transition stream.
func (w *Watcher) Events() <-chan idle.Event {
	return w.events
}

// Err returns the terminal error once Events is closed.
func (w *Watcher) Err() error {
	return w.err
}

// Backend returns "x11"
func (w *Watcher) Backend() string {
	return "x11"
}

// Close tears down the X connection.
func (w *Watcher) Close() error {
	w.conn.Close()
	return nil
}
