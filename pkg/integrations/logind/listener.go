package logind

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	managerPath   = dbus.ObjectPath("/org/freedesktop/login1")
	managerIface  = "org.freedesktop.login1.Manager"
	sleepMember   = "PrepareForSleep"
	sleepSignal   = managerIface + "." + sleepMember
	signalBacklog = 16
)

// Event reports a power transition. Sleeping is true when the machine
// is about to suspend and false when it has just resumed.
type Event struct {
	Sleeping bool
}

// Listener subscribes to logind's PrepareForSleep signal on the system
// bus and republishes it as Events.
type Listener struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	events  chan Event
	err     error
}

// NewListener connects to the system bus. Machines without logind get
// an error here rather than a silent listener.
func NewListener() (*Listener, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	return &Listener{
		conn:    conn,
		signals: make(chan *dbus.Signal, signalBacklog),
		events:  make(chan Event, 4),
	}, nil
}

// Start registers the signal match and begins forwarding transitions.
func (l *Listener) Start(ctx context.Context) error {
	err := l.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(managerPath),
		dbus.WithMatchInterface(managerIface),
		dbus.WithMatchMember(sleepMember),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", sleepSignal, err)
	}

	l.conn.Signal(l.signals)
	go l.run(ctx)
	return nil
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.events)

	for {
		select {
		case <-ctx.Done():
			return
		case sig, open := <-l.signals:
			if !open {
				// godbus closes signal channels when the connection
				// drops.
				l.err = fmt.Errorf("system bus connection lost")
				return
			}
			ev, ok := decodeSignal(sig)
			if !ok {
				continue
			}
			select {
			case l.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

// decodeSignal extracts a power transition from a raw bus signal.
// Signals for other members or with unexpected bodies are dropped.
func decodeSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || sig.Name != sleepSignal {
		return Event{}, false
	}
	if len(sig.Body) != 1 {
		return Event{}, false
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		return Event{}, false
	}
	return Event{Sleeping: sleeping}, true
}

// Events returns the transition stream. It is closed when the listener
// stops.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Err returns the terminal error once Events is closed, or nil after a
// clean shutdown.
func (l *Listener) Err() error {
	return l.err
}

// Close tears down the bus connection.
func (l *Listener) Close() error {
	l.conn.RemoveSignal(l.signals)
	return l.conn.Close()
}
