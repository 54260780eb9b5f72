package activities

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	managerDest     = "org.kde.ActivityManager"
	activitiesPath  = dbus.ObjectPath("/ActivityManager/Activities")
	activitiesIface = "org.kde.ActivityManager.Activities"

	currentMethod     = activitiesIface + ".CurrentActivity"
	nameMethod        = activitiesIface + ".ActivityName"
	descriptionMethod = activitiesIface + ".ActivityDescription"

	changedMember = "CurrentActivityChanged"
	changedSignal = activitiesIface + "." + changedMember
)

// busTransport talks to kactivitymanagerd over the session bus.
type busTransport struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	signals chan *dbus.Signal
	changes chan string
	done    chan struct{}
}

func newBusTransport() (*busTransport, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchObjectPath(activitiesPath),
		dbus.WithMatchInterface(activitiesIface),
		dbus.WithMatchMember(changedMember),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", changedSignal, err)
	}

	t := &busTransport{
		conn:    conn,
		obj:     conn.Object(managerDest, activitiesPath),
		signals: make(chan *dbus.Signal, 16),
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}

	conn.Signal(t.signals)
	go t.pump()
	return t, nil
}

// pump decodes raw bus signals into activity ids. godbus closes the
// signal channel when the connection drops, which closes changes and
// lets the client report the loss.
func (t *busTransport) pump() {
	defer close(t.changes)

	for sig := range t.signals {
		if sig.Name != changedSignal || len(sig.Body) != 1 {
			continue
		}
		id, ok := sig.Body[0].(string)
		if !ok {
			continue
		}
		select {
		case t.changes <- id:
		case <-t.done:
			return
		}
	}
}

func (t *busTransport) CurrentActivity(ctx context.Context) (string, error) {
	var id string
	if err := t.obj.CallWithContext(ctx, currentMethod, 0).Store(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (t *busTransport) ActivityName(ctx context.Context, id string) (string, error) {
	var name string
	if err := t.obj.CallWithContext(ctx, nameMethod, 0, id).Store(&name); err != nil {
		return "", err
	}
	return name, nil
}

func (t *busTransport) ActivityDescription(ctx context.Context, id string) (string, error) {
	var desc string
	if err := t.obj.CallWithContext(ctx, descriptionMethod, 0, id).Store(&desc); err != nil {
		return "", err
	}
	return desc, nil
}

func (t *busTransport) Changes() <-chan string {
	return t.changes
}

func (t *busTransport) Close() error {
	close(t.done)
	t.conn.RemoveSignal(t.signals)
	return t.conn.Close()
}
