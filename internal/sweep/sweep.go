// Package sweep periodically removes expired subscription watchers.
package sweep

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Store deletes watcher rows whose expiry has passed.
type Store interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Runner drives periodic sweeps until its context is cancelled.
type Runner struct {
	store    Store
	interval time.Duration
	log      *zap.Logger
}

func NewRunner(store Store, interval time.Duration, log *zap.Logger) *Runner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{store: store, interval: interval, log: log}
}

// Run sweeps once, then on every tick, and blocks until ctx is done.
// Errors are logged, not returned: a failed sweep retries on the next tick.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	removed, err := r.store.SweepExpired(ctx)
	if err != nil {
		r.log.Warn("watcher sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		r.log.Info("watcher sweep", zap.Int64("removed", removed))
	}
}
