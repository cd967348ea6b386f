package store

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often the TTL worker looks for idle sessions.
const DefaultSweepInterval = 5 * time.Minute

// CleanupCallback is called for each session removed by the TTL worker.
type CleanupCallback func(sessionID string)

// StartTTLWorker runs a background goroutine that periodically deletes
// conversations idle for longer than ttl. It stops when ctx is done.
func StartTTLWorker(ctx context.Context, repo Repository, ttl, interval time.Duration, onCleanup CleanupCallback) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				SweepExpired(ctx, repo, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// SweepExpired runs one cleanup pass and returns how many sessions it removed.
func SweepExpired(ctx context.Context, repo Repository, ttl time.Duration, onCleanup CleanupCallback) int {
	ids, err := repo.CleanupExpired(ctx, ttl)
	if err != nil {
		slog.Error("TTL worker failed to clean up expired sessions", "error", err)
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	slog.Info("TTL worker removed expired sessions", "count", len(ids))
	if onCleanup != nil {
		for _, id := range ids {
			onCleanup(id)
		}
	}
	return len(ids)
}
