// Package cache is the key/value port behind the entity cache.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get on a miss or an expired key.
var ErrNotFound = errors.New("cache: key not found")

// Cache stores opaque values under string keys with a TTL.
type Cache interface {
	// Get returns the value of key, or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl keeps it until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the connection.
	Close() error
}
