package models

// EventKind tags the variants flowing through the daemon queue.
type EventKind string

const (
	EventActivityChanged EventKind = "activity_changed"
	EventIdleChanged     EventKind = "idle_changed"
	EventSleepingNow     EventKind = "sleeping_now"
	EventWakingNow       EventKind = "waking_now"
)

// Event is a transition trigger produced by one of the listeners and
// consumed by the multiplexer, strictly one at a time in arrival
// order. Only the field matching the kind is meaningful.
type Event struct {
	Kind     EventKind
	Activity string // EventActivityChanged: new activity identifier
	Idle     bool   // EventIdleChanged: true when the display went idle
}

// ActivityChanged builds an activity-changed event.
func ActivityChanged(id string) Event {
	return Event{Kind: EventActivityChanged, Activity: id}
}

// IdleChanged builds an idle-status-changed event.
func IdleChanged(idle bool) Event {
	return Event{Kind: EventIdleChanged, Idle: idle}
}

// SleepingNow builds a system-going-to-sleep event.
func SleepingNow() Event {
	return Event{Kind: EventSleepingNow}
}

// WakingNow builds a system-resumed event.
func WakingNow() Event {
	return Event{Kind: EventWakingNow}
}
