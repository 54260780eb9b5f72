package idle

import (
	"context"
	"testing"
	"time"
)

type MockWatcher struct {
	events  chan Event
	err     error
	backend string
	started bool
	closed  bool
}

func (m *MockWatcher) Start(ctx context.Context) error {
	m.started = true
	return nil
}

func (m *MockWatcher) Events() <-chan Event {
	return m.events
}

func (m *MockWatcher) Err() error {
	return m.err
}

func (m *MockWatcher) Backend() string {
	return m.backend
}

func (m *MockWatcher) Close() error {
	m.closed = true
	return nil
}

func TestMockWatcher(t *testing.T) {
	var _ Watcher = (*MockWatcher)(nil)

	mock := &MockWatcher{
		events:  make(chan Event, 1),
		backend: "x11",
	}

	if err := mock.Start(context.Background()); err != nil {
		t.Errorf("Start() error: %v", err)
	}
	if !mock.started {
		t.Error("Start() did not arm the watcher")
	}

	mock.events <- Event{Idle: true, IdleFor: 5 * time.Second}
	close(mock.events)

	ev, ok := <-mock.Events()
	if !ok {
		t.Fatal("Events() closed before delivering")
	}
	if !ev.Idle {
		t.Error("Idle = false, want true")
	}
	if ev.IdleFor != 5*time.Second {
		t.Errorf("IdleFor = %v, want 5s", ev.IdleFor)
	}

	if mock.Backend() != "x11" {
		t.Errorf("Backend() = %s, want x11", mock.Backend())
	}

	if err := mock.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestTrackerEdges(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		samples   []time.Duration
		want      []Event
	}{
		{
			name:      "no transition below threshold",
			threshold: 5 * time.Second,
			samples:   []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
			want:      nil,
		},
		{
			name:      "single idle edge",
			threshold: 5 * time.Second,
			samples:   []time.Duration{4 * time.Second, 5 * time.Second, 6 * time.Second},
			want:      []Event{{Idle: true, IdleFor: 5 * time.Second}},
		},
		{
			name:      "idle then resume",
			threshold: 5 * time.Second,
			samples:   []time.Duration{6 * time.Second, 7 * time.Second, time.Second},
			want: []Event{
				{Idle: true, IdleFor: 6 * time.Second},
				{Idle: false, IdleFor: time.Second},
			},
		},
		{
			name:      "bouncing fires each crossing once",
			threshold: 2 * time.Second,
			samples:   []time.Duration{3 * time.Second, 0, 3 * time.Second, 0},
			want: []Event{
				{Idle: true, IdleFor: 3 * time.Second},
				{Idle: false, IdleFor: 0},
				{Idle: true, IdleFor: 3 * time.Second},
				{Idle: false, IdleFor: 0},
			},
		},
		{
			name:      "exactly at threshold counts as idle",
			threshold: 5 * time.Second,
			samples:   []time.Duration{5 * time.Second},
			want:      []Event{{Idle: true, IdleFor: 5 * time.Second}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(tt.threshold)
			var got []Event
			for _, sample := range tt.samples {
				if ev, fired := tracker.Observe(sample); fired {
					got = append(got, ev)
				}
			}

			if len(got) != len(tt.want) {
				t.Fatalf("fired %d events, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("event %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTrackerIdleState(t *testing.T) {
	tracker := NewTracker(time.Second)
	if tracker.Idle() {
		t.Error("new tracker reports idle")
	}
	tracker.Observe(2 * time.Second)
	if !tracker.Idle() {
		t.Error("tracker not idle after crossing threshold")
	}
	tracker.Observe(0)
	if tracker.Idle() {
		t.Error("tracker still idle after resume")
	}
}
