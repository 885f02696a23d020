package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a CounterStore backed by a shared Redis cache, letting
// multiple gatehouse instances share one set of windows. Window expiry is
// delegated to Redis key TTLs, so Sweep is a no-op.
//
// RedisStore also implements IncrementStore: counting happens via a
// pipelined INCR so that two instances hitting the same identifier can
// never both observe the same count.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed counter store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(identifier string) string {
	return fmt.Sprintf("%s:%s", s.prefix, identifier)
}

// Get reconstructs the record from the stored count and the key's TTL
func (s *RedisStore) Get(ctx context.Context, identifier string) (*RateRecord, bool, error) {
	key := s.key(identifier)

	count, err := s.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis pttl: %w", err)
	}
	if ttl <= 0 {
		// Key expired between the two commands.
		return nil, false, nil
	}

	return &RateRecord{
		Count:         count,
		WindowResetAt: time.Now().Add(ttl),
	}, true, nil
}

// Set stores the count with a TTL matching the remaining window
func (s *RedisStore) Set(ctx context.Context, identifier string, record *RateRecord) error {
	ttl := time.Until(record.WindowResetAt)
	if ttl <= 0 {
		return s.Delete(ctx, identifier)
	}
	if err := s.client.Set(ctx, s.key(identifier), record.Count, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Increment advances the identifier's window atomically. INCR and PTTL run
// in one pipeline, so concurrent callers each receive a distinct count no
// matter which instance they arrive on. The first increment of a window
// stamps the key's expiry; later ones leave the boundary untouched.
func (s *RedisStore) Increment(ctx context.Context, identifier string, window time.Duration) (*RateRecord, error) {
	key := s.key(identifier)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis incr: %w", err)
	}

	ttl := pttl.Val()
	if ttl <= 0 {
		// Fresh window, or a key left behind without a TTL by an
		// interrupted increment. Either way this call owns the boundary.
		ttl = window
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return nil, fmt.Errorf("redis pexpire: %w", err)
		}
	}

	return &RateRecord{
		Count:         int(incr.Val()),
		WindowResetAt: time.Now().Add(ttl),
	}, nil
}

// Delete removes the record for an identifier
func (s *RedisStore) Delete(ctx context.Context, identifier string) error {
	if err := s.client.Del(ctx, s.key(identifier)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Sweep is a no-op: Redis expires window keys server-side
func (s *RedisStore) Sweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}
