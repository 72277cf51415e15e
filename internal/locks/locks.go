// Package locks enforces the one-pending-request-per-requester invariant
// with a keyed Redis lock. The lock's TTL matches the request expiry window
// so an unanswered request self-heals even if the sweeper never runs.
package locks

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/gofiber/storage/redis/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "active_request:"

// Store is a Redis-backed request lock store.
type Store struct {
	storage *redisstorage.Storage
	client  redis.UniversalClient
}

// New connects to Redis using the given URL.
func New(redisURL string) (*Store, error) {
	storage := redisstorage.New(redisstorage.Config{
		URL:   redisURL,
		Reset: false,
	})
	return &Store{storage: storage, client: storage.Conn()}, nil
}

// Acquire attempts an atomic set-if-not-exists with TTL for the requester's
// lock key. Returns false when another pending request already holds it.
func (s *Store) Acquire(ctx context.Context, requesterID uuid.UUID, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key(requesterID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire request lock: %w", err)
	}
	return ok, nil
}

// Release drops the requester's lock. Idempotent: releasing a lock that was
// never held (or already expired via TTL) is not an error.
func (s *Store) Release(ctx context.Context, requesterID uuid.UUID) error {
	if err := s.client.Del(ctx, key(requesterID)).Err(); err != nil {
		return fmt.Errorf("failed to release request lock: %w", err)
	}
	return nil
}

// Close shuts down the underlying Redis connection.
func (s *Store) Close() error {
	return s.storage.Close()
}

func key(requesterID uuid.UUID) string {
	return keyPrefix + requesterID.String()
}
