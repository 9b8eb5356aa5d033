// Package tokenstore implements token persistence with Redis as an
// alternate backend for deployments that already run one.
package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKey = "session:token"

// RedisStore implements Store on a single Redis key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load retrieves the current record.
func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	data, err := s.client.Get(ctx, tokenKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting token record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshaling token record: %w", err)
	}

	return &rec, nil
}

// Save overwrites the record. The key carries no TTL: an expired token
// stays stored until overwritten or deleted, and expiry is decided from
// the record's own timestamps.
func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	rec.Stamp(time.Now())

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling token record: %w", err)
	}

	if err := s.client.Set(ctx, tokenKey, data, 0).Err(); err != nil {
		return fmt.Errorf("saving token record: %w", err)
	}

	return nil
}

// Delete removes the record.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, tokenKey).Err(); err != nil {
		return fmt.Errorf("deleting token record: %w", err)
	}
	return nil
}

// CheckHealth verifies Redis connectivity.
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("token store health check failed: %w", err)
	}
	return nil
}
