package logging

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes log entries older than a cutoff.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeOnce deletes entries older than retention and returns how many went.
func PurgeOnce(ctx context.Context, p Purger, retention time.Duration, now time.Time) (int64, error) {
	return p.Purge(ctx, now.Add(-retention))
}

// StartCleanup runs a goroutine that purges system_logs older than retention
// every interval until done is closed.
func StartCleanup(p Purger, retention, interval time.Duration, logger *slog.Logger, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				deleted, err := PurgeOnce(ctx, p, retention, time.Now())
				cancel()
				if err != nil {
					logger.Error("log cleanup failed", "error", err)
				} else if deleted > 0 {
					logger.Info("log cleanup completed", "deleted", deleted)
				}
			case <-done:
				return
			}
		}
	}()
}
