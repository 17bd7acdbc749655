// Package worker runs background ledger jobs.
package worker

import (
	"context"
	"time"

	"github.com/projeto-sistema-financas-pessoais/financas-pessoais-backand/internal/logger"
)

// Activator applies due pending recurring credit charges.
type Activator interface {
	ActivateDueOccurrences(ctx context.Context, at time.Time) (int, error)
}

// Sweeper periodically counts due recurring credit occurrences against their
// cards, so limits stay current for cards nobody touches.
type Sweeper struct {
	activator Activator
	interval  time.Duration
	now       func() time.Time
}

// NewSweeper creates a Sweeper running every interval.
func NewSweeper(activator Activator, interval time.Duration) *Sweeper {
	return &Sweeper{activator: activator, interval: interval, now: time.Now}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	at := s.now()
	count, err := s.activator.ActivateDueOccurrences(ctx, at)
	if err != nil {
		logger.Get().Errorw("Participation sweep failed", "error", err)
		return 0, err
	}
	logger.Get().Infow("Participation sweep complete",
		"activated", count,
		"next_run", at.Add(s.interval).Format(time.RFC3339))
	return count, nil
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	_, _ = s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Get().Info("Participation sweeper stopped")
			return nil
		case <-ticker.C:
			_, _ = s.RunOnce(ctx)
		}
	}
}
