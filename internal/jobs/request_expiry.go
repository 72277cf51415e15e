// Package jobs holds the background reconciliation passes. Each job exposes
// RunOnce for scheduler-triggered execution and Start for the internal
// ticker loop; both paths share the same idempotent pass.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Novice130/At-tayyibun/internal/metrics"
	"github.com/Novice130/At-tayyibun/internal/models"
)

// ExpiryStore is the persistence surface the sweeper needs.
type ExpiryStore interface {
	ExpirePendingRequests(ctx context.Context, now time.Time) ([]models.ExpiredRequestRef, error)
}

// LockReleaser releases request locks for expired requests.
type LockReleaser interface {
	Release(ctx context.Context, requesterID uuid.UUID) error
}

// RequestExpiry transitions stale pending requests to expired and releases
// the corresponding request locks. The lock TTL already self-heals, but the
// lock and the row deadline are stored separately and can drift, so the
// sweeper releases explicitly as well.
type RequestExpiry struct {
	store    ExpiryStore
	locks    LockReleaser
	interval time.Duration
}

// NewRequestExpiry creates the expiry sweeper.
func NewRequestExpiry(store ExpiryStore, locks LockReleaser, interval time.Duration) *RequestExpiry {
	return &RequestExpiry{store: store, locks: locks, interval: interval}
}

// RunOnce performs a single sweep and returns the number of requests
// processed. Safe to run concurrently with itself: the batch update only
// matches rows still pending, so each request is expired by exactly one run.
func (j *RequestExpiry) RunOnce(ctx context.Context) (int, error) {
	refs, err := j.store.ExpirePendingRequests(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}

	for _, ref := range refs {
		// Per-row failures must not abort the batch; the lock TTL is
		// the fallback for any we miss here.
		if err := j.locks.Release(ctx, ref.RequesterID); err != nil {
			slog.Error("sweeper failed to release lock",
				"request_id", ref.ID, "requester_id", ref.RequesterID, "error", err)
		}
	}

	metrics.RecordSwept(len(refs))
	slog.Info("expired stale requests", "processed", len(refs))
	return len(refs), nil
}

// Start begins the periodic sweep loop. Blocks until ctx is cancelled.
func (j *RequestExpiry) Start(ctx context.Context) {
	slog.Info("request expiry sweeper started", "interval", j.interval)

	// Run immediately on start
	if _, err := j.RunOnce(ctx); err != nil {
		slog.Error("request expiry sweep failed", "error", err)
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("request expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := j.RunOnce(ctx); err != nil {
				slog.Error("request expiry sweep failed", "error", err)
			}
		}
	}
}
