package credential

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage is a Redis-backed [Storage]. Keys are written without a TTL
// so the credential survives process restarts until explicitly cleared.
type RedisStorage struct {
	client redis.UniversalClient
}

// NewRedisStorage creates a [RedisStorage] on top of the given client.
// Key namespacing is the credential [Store]'s responsibility.
func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{client: client}
}

// Get returns the value for key, mapping redis.Nil to [ErrKeyNotFound].
func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key with no expiration.
func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}
