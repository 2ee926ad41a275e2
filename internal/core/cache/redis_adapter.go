package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter implements Cache on Redis. Keys are prefixed with "namespace:"
// when a namespace is set, so several services can share one database.
type RedisAdapter struct {
	client    *redis.Client
	namespace string
}

// NewRedisAdapter connects lazily to redisURL
// (redis://[:password@]host[:port][/database]).
func NewRedisAdapter(redisURL, namespace string) (*RedisAdapter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &RedisAdapter{client: redis.NewClient(opts), namespace: namespace}, nil
}

func (r *RedisAdapter) key(key string) string {
	if r.namespace == "" {
		return key
	}
	return r.namespace + ":" + key
}

func opError(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("redis %s %s: %w", op, key, err)
}

// Get implements Cache.
func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, opError("get", key, ErrNotFound)
	}
	if err != nil {
		return nil, opError("get", key, err)
	}
	return val, nil
}

// Set implements Cache.
func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return opError("set", key, r.client.Set(ctx, r.key(key), value, ttl).Err())
}

// Delete implements Cache.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	return opError("del", key, r.client.Del(ctx, r.key(key)).Err())
}

// Ping implements Cache.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	return opError("ping", r.client.Options().Addr, r.client.Ping(ctx).Err())
}

// Close implements Cache.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
