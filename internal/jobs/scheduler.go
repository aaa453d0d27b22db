// Package jobs runs periodic maintenance work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// GroupPurchaseCloser settles group purchases whose deadline has passed.
type GroupPurchaseCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

const (
	closeExpiredSpec    = "@every 1m"
	closeExpiredTimeout = 30 * time.Second
)

type Scheduler struct {
	cron   *cron.Cron
	groups GroupPurchaseCloser
	log    *zap.Logger
	now    func() time.Time
}

func NewScheduler(groups GroupPurchaseCloser, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		groups: groups,
		log:    log,
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron loop in the background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(closeExpiredSpec, s.closeExpired); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("job scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

// Stop waits for running jobs until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("job scheduler did not stop in time")
	}
}

func (s *Scheduler) closeExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), closeExpiredTimeout)
	defer cancel()

	n, err := s.groups.CloseExpired(ctx, s.now())
	if err != nil {
		s.log.Error("closing expired group purchases failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("closed expired group purchases", zap.Int("count", n))
	}
}
