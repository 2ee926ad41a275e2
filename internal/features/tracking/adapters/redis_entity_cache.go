package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"whereis/internal/core/cache"
	"whereis/internal/features/tracking/domain"
)

const entityKeyPrefix = "entity:"

// RedisEntityCache implements ports.EntityCache on top of the cache port.
type RedisEntityCache struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRedisEntityCache creates a RedisEntityCache whose entries expire after ttl.
func NewRedisEntityCache(c cache.Cache, ttl time.Duration) *RedisEntityCache {
	return &RedisEntityCache{
		cache: c,
		ttl:   ttl,
	}
}

func entityKey(id domain.TrackingID) string {
	return entityKeyPrefix + id.String()
}

// Get returns the cached entity. A miss is reported with an error wrapping cache.ErrNotFound.
func (r *RedisEntityCache) Get(ctx context.Context, id domain.TrackingID) (*domain.Entity, error) {
	data, err := r.cache.Get(ctx, entityKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get entity from cache: %w", err)
	}

	var e domain.Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	return &e, nil
}

// Set stores the entity.
func (r *RedisEntityCache) Set(ctx context.Context, e *domain.Entity) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	if err := r.cache.Set(ctx, entityKey(e.ID), data, r.ttl); err != nil {
		return fmt.Errorf("failed to save entity to cache: %w", err)
	}

	return nil
}

// Delete removes the entity.
func (r *RedisEntityCache) Delete(ctx context.Context, id domain.TrackingID) error {
	if err := r.cache.Delete(ctx, entityKey(id)); err != nil {
		return fmt.Errorf("failed to delete entity from cache: %w", err)
	}
	return nil
}
