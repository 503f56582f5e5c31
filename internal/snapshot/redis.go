package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when none is configured.
const DefaultRedisKey = "healthboard:snapshot"

// RedisStorage keeps the checkpoint as a single Redis string value.
type RedisStorage struct {
	rdb *redis.Client
	key string
}

// NewRedisStorage returns a [RedisStorage] using a new client built from opts.
// An empty key selects [DefaultRedisKey].
func NewRedisStorage(opts *redis.Options, key string) *RedisStorage {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStorage{rdb: redis.NewClient(opts), key: key}
}

// Describe implements [Storage].
func (r *RedisStorage) Describe() string {
	return fmt.Sprintf("redis://%s/%s", r.rdb.Options().Addr, r.key)
}

// Ping verifies Redis connectivity.
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection. Implements io.Closer.
func (r *RedisStorage) Close() error {
	return r.rdb.Close()
}

// Save implements [Storage].
func (r *RedisStorage) Save(ctx context.Context, data []byte) error {
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", r.key, err)
	}
	return nil
}

// Load implements [Storage].
func (r *RedisStorage) Load(ctx context.Context) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, r.Describe())
		}
		return nil, fmt.Errorf("failed to read %s from Redis: %w", r.key, err)
	}
	return data, nil
}
