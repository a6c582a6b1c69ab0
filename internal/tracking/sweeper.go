package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

func sweepSchedule(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}

// Sweeper periodically finishes idle sessions of a Tracker.
type Sweeper struct {
	cron *cron.Cron
}

func NewSweeper(ctx context.Context, tracker *Tracker, interval, maxIdle time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid sweep interval: %s", interval)
	}
	if maxIdle <= 0 {
		return nil, fmt.Errorf("invalid max idle duration: %s", maxIdle)
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(sweepSchedule(interval), func() {
		tracker.SweepIdle(ctx, maxIdle)
	}); err != nil {
		return nil, fmt.Errorf("schedule idle sweep: %w", err)
	}

	log.Debugf("idle sweep scheduled every %s, max idle %s", interval, maxIdle)
	return &Sweeper{cron: c}, nil
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits up to timeout for a running sweep.
func (s *Sweeper) Stop(timeout time.Duration) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(timeout):
		log.Warnf("idle sweep: stop timeout waiting for a running sweep")
	}
}
