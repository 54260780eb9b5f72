package daemon

import (
	"context"

	"plasmatrack/internal/activities"
	"plasmatrack/internal/models"
	"plasmatrack/pkg/idle"
	"plasmatrack/pkg/integrations/logind"
)

// ActivitySource feeds desktop activity switches into the queue. The
// client is started by the caller because the query server shares it.
type ActivitySource struct {
	client *activities.Client
}

func NewActivitySource(client *activities.Client) *ActivitySource {
	return &ActivitySource{client: client}
}

func (s *ActivitySource) Name() string {
	return "activity"
}

func (s *ActivitySource) Run(ctx context.Context, queue chan<- models.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case id, open := <-s.client.Events():
			if !open {
				return s.client.Err()
			}
			select {
			case queue <- models.ActivityChanged(id):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// IdleSource feeds display idle transitions into the queue.
type IdleSource struct {
	watcher idle.Watcher
}

func NewIdleSource(watcher idle.Watcher) *IdleSource {
	return &IdleSource{watcher: watcher}
}

func (s *IdleSource) Name() string {
	return "idle"
}

func (s *IdleSource) Run(ctx context.Context, queue chan<- models.Event) error {
	if err := s.watcher.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, open := <-s.watcher.Events():
			if !open {
				return s.watcher.Err()
			}
			select {
			case queue <- models.IdleChanged(ev.Idle):
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// SleepSource feeds suspend and resume transitions into the queue.
type SleepSource struct {
	listener *logind.Listener
}

func NewSleepSource(listener *logind.Listener) *SleepSource {
	return &SleepSource{listener: listener}
}

func (s *SleepSource) Name() string {
	return "sleep"
}

func (s *SleepSource) Run(ctx context.Context, queue chan<- models.Event) error {
	if err := s.listener.Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, open := <-s.listener.Events():
			if !open {
				return s.listener.Err()
			}
			var event models.Event
			if ev.Sleeping {
				event = models.SleepingNow()
			} else {
				event = models.WakingNow()
			}
			select {
			case queue <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
