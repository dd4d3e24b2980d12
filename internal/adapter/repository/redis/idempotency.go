package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessingMarker is stored while the first request for a key is in flight.
const ProcessingMarker = "processing"

const defaultKeyPrefix = "tapajos:"

// IdempotencyStore implements usecase.IdempotencyStore on Redis. Keys are
// namespaced as <prefix>idempotency:<key>.
type IdempotencyStore struct {
	client redis.Cmdable
	prefix string
}

// NewIdempotencyStore creates a store; an empty prefix means "tapajos:".
func NewIdempotencyStore(client redis.Cmdable, prefix string) *IdempotencyStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &IdempotencyStore{
		client: client,
		prefix: prefix + "idempotency:",
	}
}

func (s *IdempotencyStore) key(k string) string {
	return s.prefix + k
}

// CheckAndSet claims key with SETNX. When the key is already taken it
// returns the stored value, which is ProcessingMarker until the first
// request finishes.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	value := []byte(ProcessingMarker)
	if response != nil {
		value = response
	}

	for {
		claimed, err := s.client.SetNX(ctx, s.key(key), value, ttl).Result()
		if err != nil {
			return false, nil, err
		}
		if claimed {
			return false, nil, nil
		}

		existing, err := s.client.Get(ctx, s.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return false, nil, err
		}
		return true, existing, nil
	}
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), response, ttl).Err()
}

// Release forgets key so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
