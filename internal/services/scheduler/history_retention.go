package scheduler

import (
	"context"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const DefaultRetentionInterval = 1 * time.Hour

// Pruner removes records created before a cutoff
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionScheduler periodically prunes analyses older than maxAge
type RetentionScheduler struct {
	pruner   Pruner
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewRetentionScheduler(pruner Pruner, maxAge, interval time.Duration) *RetentionScheduler {
	if interval == 0 {
		interval = DefaultRetentionInterval
	}
	return &RetentionScheduler{
		pruner:   pruner,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start prunes once, then on every tick until Stop or ctx cancellation
func (s *RetentionScheduler) Start(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	fiberlog.Infof("History retention scheduler started, pruning analyses older than %s every %s", s.maxAge, s.interval)
	s.prune(ctx)

	for {
		select {
		case <-ticker.C:
			s.prune(ctx)
		case <-s.stopChan:
			fiberlog.Info("History retention scheduler stopped")
			return
		case <-ctx.Done():
			fiberlog.Info("History retention scheduler stopped due to context cancellation")
			return
		}
	}
}

func (s *RetentionScheduler) prune(ctx context.Context) {
	removed, err := s.pruner.Prune(ctx, s.now().Add(-s.maxAge))
	if err != nil {
		fiberlog.Errorf("Error pruning analysis history: %v", err)
		return
	}
	if removed > 0 {
		fiberlog.Infof("Pruned %d analyses older than %s", removed, s.maxAge)
	}
}

// Stop ends the loop and waits for it to return. Start must have been called.
func (s *RetentionScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	<-s.done
}
