package interview

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically drops interview sessions that were abandoned
// mid-way, so a user who walked away is not pinned to the academic agent.
type Sweeper struct {
	store  *Store
	ttl    time.Duration
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper schedules idle-session expiry. schedule uses cron syntax,
// including descriptors such as "@every 5m".
func NewSweeper(store *Store, ttl time.Duration, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		store:  store,
		ttl:    ttl,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep() }); err != nil {
		return nil, fmt.Errorf("schedule interview sweeper %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("Interview sweeper started", "idle_ttl", s.ttl)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Interview sweeper stopped")
}

// Sweep expires idle sessions once and returns how many were removed.
func (s *Sweeper) Sweep() int {
	expired := s.store.ExpireIdle(s.ttl)
	for _, userID := range expired {
		s.logger.Info("Interview session expired", "user_id", userID, "idle_ttl", s.ttl)
	}
	return len(expired)
}
