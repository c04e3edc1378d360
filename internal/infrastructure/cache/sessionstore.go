package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/sessiongate/internal/domain/session"
)

// RedisSessionStore keeps session tracking keys in Redis
// Key format: {prefix}{kind}:{user_id}:{scope}
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

var _ session.Store = (*RedisSessionStore)(nil)

// NewRedisSessionStore creates a new RedisSessionStore instance
// Parameters:
//   - client: Redis client instance
//   - prefix: Key prefix for namespacing (e.g., "session:")
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
	}
}

// Get returns session.ErrKeyNotFound when the key is absent or expired
func (s *RedisSessionStore) Get(ctx context.Context, key session.Key) (string, error) {
	value, err := s.client.Get(ctx, s.buildKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", session.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to read %s from redis: %w", key, err)
	}
	return value, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, key session.Key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.buildKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s to redis: %w", key, err)
	}
	return nil
}

// Forget deletes the key. Deleting a missing key is not an error.
func (s *RedisSessionStore) Forget(ctx context.Context, key session.Key) error {
	if err := s.client.Del(ctx, s.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from redis: %w", key, err)
	}
	return nil
}

func (s *RedisSessionStore) buildKey(key session.Key) string {
	return s.prefix + key.String()
}
