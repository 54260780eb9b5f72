package daemon

import (
	"context"
	"fmt"
	"log"
	"time"

	"plasmatrack/internal/database"
	"plasmatrack/internal/models"
	"plasmatrack/pkg/utils"
)

// Source is one asynchronous producer feeding the daemon queue. Run
// blocks until ctx is canceled; returning earlier, with or without an
// error, means the source can no longer observe its input and the
// daemon must not keep recording.
type Source interface {
	Name() string
	Run(ctx context.Context, queue chan<- models.Event) error
}

// Directory answers which activity the desktop is currently in.
type Directory interface {
	CurrentActivity(ctx context.Context) (string, error)
}

type sourceExit struct {
	name string
	err  error
}

// Service merges events from all sources into a single queue and
// applies them to the timeline one at a time. Strict serialization is
// what keeps the at-most-one-open-interval rule easy to uphold.
type Service struct {
	repo      *database.Repository
	directory Directory
	sources   []Source
	queue     chan models.Event
	clock     func() time.Time
}

func NewService(repo *database.Repository, directory Directory, sources ...Source) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		sources:   sources,
		queue:     make(chan models.Event, 32),
		clock:     time.Now,
	}
}

// Run starts the sources and processes events until ctx is canceled, a
// source dies, or the queue closes. The open interval is closed on
// every exit path so downtime is never attributed to an activity.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	id, err := s.directory.CurrentActivity(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current activity: %w", err)
	}
	if err := s.repo.SwitchActivity(id, s.clock()); err != nil {
		return fmt.Errorf("failed to open initial interval: %w", err)
	}

	errs := make(chan sourceExit, len(s.sources))
	for _, src := range s.sources {
		go func(src Source) {
			errs <- sourceExit{name: src.Name(), err: src.Run(ctx, s.queue)}
		}(src)
	}

	log.Printf("daemon: tracking started in activity %s", id)

	for {
		select {
		case <-ctx.Done():
			return s.shutdown()
		case exit := <-errs:
			if ctx.Err() != nil {
				return s.shutdown()
			}
			if err := s.shutdown(); err != nil {
				log.Printf("daemon: %v", err)
			}
			if exit.err != nil {
				return fmt.Errorf("%s listener failed: %w", exit.name, exit.err)
			}
			return fmt.Errorf("%s listener stopped unexpectedly", exit.name)
		case ev, open := <-s.queue:
			if !open {
				return s.shutdown()
			}
			s.handle(ctx, ev)
		}
	}
}

// handle applies one event to the timeline. Failures are recorded and
// the event dropped; a single bad event must not take tracking down.
func (s *Service) handle(ctx context.Context, ev models.Event) {
	now := s.clock()
	var err error

	switch ev.Kind {
	case models.EventActivityChanged:
		err = s.repo.SwitchActivity(ev.Activity, now)
	case models.EventIdleChanged:
		if ev.Idle {
			err = s.repo.EndCurrentActivity(now)
		} else {
			err = s.resync(ctx, now)
		}
	case models.EventSleepingNow:
		err = s.repo.EndCurrentActivity(now)
	case models.EventWakingNow:
		err = s.resync(ctx, now)
	default:
		log.Printf("daemon: dropping unknown event kind %q", ev.Kind)
		return
	}

	if err != nil {
		s.logError(string(ev.Kind), err)
	}
}

// resync re-reads the current activity before reopening the timeline.
// The activity may have changed while the display was off.
func (s *Service) resync(ctx context.Context, now time.Time) error {
	id, err := s.directory.CurrentActivity(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current activity: %w", err)
	}
	return s.repo.SwitchActivity(id, now)
}

func (s *Service) shutdown() error {
	now := s.clock()
	if name, err := s.repo.CurrentActivity(); err == nil && name != "" {
		if elapsed, open, _ := s.repo.CurrentElapsed(now); open {
			log.Printf("daemon: closing interval for %s after %s", name, utils.FormatDuration(elapsed))
		}
	}
	if err := s.repo.EndCurrentActivity(now); err != nil {
		return fmt.Errorf("failed to close open interval: %w", err)
	}
	log.Printf("daemon: tracking stopped")
	return nil
}

func (s *Service) logError(component string, err error) {
	log.Printf("daemon: %s: %v", component, err)

	entry := &models.ErrorLog{
		Timestamp: s.clock(),
		Component: component,
		Message:   err.Error(),
	}
	if dbErr := s.repo.CreateErrorLog(entry); dbErr != nil {
		log.Printf("daemon: failed to persist error: %v", dbErr)
	}
}
