package sync

import (
	"context"
	"errors"
	"time"
)

// Watch runs a sync immediately and then every interval until ctx is done.
// Failed runs are logged and retried on the next tick.
func (se *SyncEngine) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("watch interval must be positive")
	}

	se.logger.Info("watch start", "interval", interval)
	se.runLogged(ctx)

	// using a timer and not a ticker to avoid queued ticks when
	// a sync takes longer than the interval
	timer := se.clock.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			se.logger.Info("watch stop")
			return nil
		case <-timer.Chan():
			se.runLogged(ctx)
			timer.Reset(interval)
		}
	}
}

func (se *SyncEngine) runLogged(ctx context.Context) {
	if _, err := se.RunSync(ctx); err != nil && !errors.Is(err, context.Canceled) {
		se.logger.Error("sync failed", "error", err)
	}
}
