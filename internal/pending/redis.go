// Package pending implements the credential bridge with Redis as an
// alternate backend.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingKey = "session:pending"

// RedisStore implements Store on a single Redis key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed bridge.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Stash overwrites the pending record.
func (s *RedisStore) Stash(ctx context.Context, rec *Record) error {
	rec.CreatedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling pending credentials: %w", err)
	}

	if err := s.client.Set(ctx, pendingKey, data, 0).Err(); err != nil {
		return fmt.Errorf("saving pending credentials: %w", err)
	}

	return nil
}

// Take reads the pending record without deleting it.
func (s *RedisStore) Take(ctx context.Context) (*Record, error) {
	data, err := s.client.Get(ctx, pendingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting pending credentials: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling pending credentials: %w", err)
	}

	return &rec, nil
}

// CheckHealth verifies Redis connectivity.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("pending store health check failed: %w", err)
	}
	return nil
}
