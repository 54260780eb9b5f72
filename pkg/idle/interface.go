package idle

import (
	"context"
	"time"
)

// Event represents one idle state transition of the display.
type Event struct {
	Idle    bool          // true when input went quiet past the threshold
	IdleFor time.Duration // input silence observed when the edge fired
}

// Watcher is the interface that all idle detection backends must satisfy
type Watcher interface {
	// Start arms the backend and begins delivering transitions.
	// It returns once watching is established.
	Start(ctx context.Context) error

	// Events returns the transition stream. The channel is closed when
	// the watcher stops for any reason.
	Events() <-chan Event

	// Err returns the terminal error after Events is closed, nil for a
	// clean stop.
	Err() error

	// Backend returns the backend name ("x11" or "wayland")
	Backend() string

	// Close releases any resources used by the watcher
	Close() error
}

// Tracker turns sampled idle counters into edge-triggered transitions.
// Both poll-based backends feed their samples through one of these so
// a threshold crossing fires exactly once per direction.
type Tracker struct {
	threshold time.Duration
	idle      bool
}

// NewTracker creates a tracker that fires at the given input-silence
// threshold.
func NewTracker(threshold time.Duration) *Tracker {
	return &Tracker{threshold: threshold}
}

// Idle reports the state after the last observation.
func (t *Tracker) Idle() bool {
	return t.idle
}

// Observe feeds one sampled idle counter. The returned bool is true
// when the sample crossed the threshold in either direction; the same
// edge never fires twice.
func (t *Tracker) Observe(idleFor time.Duration) (Event, bool) {
	if !t.idle && idleFor >= t.threshold {
		t.idle = true
		return Event{Idle: true, IdleFor: idleFor}, true
	}
	if t.idle && idleFor < t.threshold {
		t.idle = false
		return Event{Idle: false, IdleFor: idleFor}, true
	}
	return Event{}, false
}
