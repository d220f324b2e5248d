package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rohankatakam/communitypulse/internal/logging"
)

// redisPrefix namespaces every key cpulse writes.
const redisPrefix = "cpulse"

// RedisStore is a Store shared by several machines through Redis. Expiry
// is delegated to Redis.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisStore connects to addr and verifies connectivity.
func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address missing")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password, // Empty string if no password
	})

	// fail fast on startup
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	logger := logging.Component("cache").With("backend", "redis")
	logger.Info("redis cache connected", "addr", addr)

	return &RedisStore{client: client, logger: logger, ttl: ttl}, nil
}

func redisKey(bucket, key string) string {
	return Key(redisPrefix, bucket, key)
}

// Get retrieves a cached value by key and unmarshals into target.
func (s *RedisStore) Get(ctx context.Context, bucket, key string, target any) (bool, error) {
	val, err := s.client.Get(ctx, redisKey(bucket, key)).Bytes()
	if err == redis.Nil {
		s.logger.Debug("cache miss", "bucket", bucket, "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed for %s/%s: %w", bucket, key, err)
	}

	if err := json.Unmarshal(val, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("cache hit", "bucket", bucket, "key", key)
	return true, nil
}

// Set stores a value with the store TTL (0 keeps it forever).
func (s *RedisStore) Set(ctx context.Context, bucket, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s/%s: %w", bucket, key, err)
	}
	if err := s.client.Set(ctx, redisKey(bucket, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Delete removes a key from cache
func (s *RedisStore) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.Del(ctx, redisKey(bucket, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed for %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Clear removes every cpulse key.
func (s *RedisStore) Clear(ctx context.Context) error {
	_, err := s.DeletePattern(ctx, redisPrefix+":*")
	return err
}

// DeletePattern deletes all keys matching a pattern, for example "cpulse:users:*".
func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) (int64, error) {
	var cursor uint64
	var keys []string

	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan failed for pattern %s: %w", pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis delete failed for pattern %s: %w", pattern, err)
	}

	s.logger.Info("cache pattern delete", "pattern", pattern, "deleted", deleted)
	return deleted, nil
}

// Close closes the Redis client connection
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
