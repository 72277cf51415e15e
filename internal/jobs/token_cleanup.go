package jobs

import (
	"context"
	"log/slog"
	"time"
)

// redeemedRetention keeps redeemed token rows around long enough for
// support investigations before they are garbage-collected.
const redeemedRetention = 30 * 24 * time.Hour

// TokenStore is the persistence surface for token garbage collection.
type TokenStore interface {
	DeleteExpiredTokens(ctx context.Context, now, redeemedBefore time.Time) (int64, error)
}

// TokenCleanup garbage-collects share tokens that can never be redeemed
// again: unredeemed rows past expiry and redeemed rows past retention.
type TokenCleanup struct {
	store    TokenStore
	interval time.Duration
}

// NewTokenCleanup creates the token GC job.
func NewTokenCleanup(store TokenStore, interval time.Duration) *TokenCleanup {
	return &TokenCleanup{store: store, interval: interval}
}

// RunOnce deletes dead tokens and returns how many were removed.
func (j *TokenCleanup) RunOnce(ctx context.Context) (int64, error) {
	now := time.Now()
	deleted, err := j.store.DeleteExpiredTokens(ctx, now, now.Add(-redeemedRetention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		slog.Info("cleaned up dead share tokens", "deleted", deleted)
	}
	return deleted, nil
}

// Start begins the periodic cleanup loop. Blocks until ctx is cancelled.
func (j *TokenCleanup) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				slog.Error("token cleanup failed", "error", err)
			}
		}
	}
}
