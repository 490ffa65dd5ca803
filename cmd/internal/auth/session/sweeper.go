package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper reaps expired sessions on a fixed period.
type Sweeper struct {
	log      *slog.Logger
	store    Store
	interval time.Duration
}

// NewSweeper constructs a Sweeper. A non-positive interval falls back to the
// default sweep cadence.
func NewSweeper(log *slog.Logger, store Store, interval time.Duration) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultConfig().SweepInterval
	}
	return &Sweeper{log: log, store: store, interval: interval}
}

// Run sweeps until ctx is cancelled. Failed sweeps are logged and retried on
// the next tick; a transient storage fault must not kill the reaper.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Error("session.sweep.fail", "err", err)
				continue
			}
			if n > 0 {
				s.log.Info("session.sweep", "reaped", n)
			}
		}
	}
}
