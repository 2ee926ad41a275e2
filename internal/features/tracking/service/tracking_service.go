package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whereis/internal/core/cache"
	"whereis/internal/core/logger"
	"whereis/internal/core/metrics"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"

	"go.uber.org/zap"
)

var (
	// ErrEntityNotFound is returned when neither storage nor the carrier has data for an identifier.
	ErrEntityNotFound = errors.New("tracking data not found")
)

// LookupRequest is an on-demand tracking query.
type LookupRequest struct {
	// ID is the raw "carrier-number" identifier.
	ID string
	// Params holds carrier-specific parameters such as "phone".
	Params map[string]string
	// Refresh forces a carrier pull, bypassing the cache and stored data.
	Refresh bool
}

// TrackingService answers tracking lookups from cache, storage or the carrier.
type TrackingService struct {
	pipeline
	cache  ports.EntityCache
	logger *zap.Logger
}

// NewTrackingService creates a TrackingService. entityCache may be nil.
func NewTrackingService(adapters *AdapterRegistry, repo ports.Repository, entityCache ports.EntityCache, m *metrics.Metrics, carrierTimeout time.Duration) *TrackingService {
	return &TrackingService{
		pipeline: pipeline{
			adapters:       adapters,
			repo:           repo,
			metrics:        m,
			carrierTimeout: carrierTimeout,
		},
		cache:  entityCache,
		logger: logger.Named("tracking"),
	}
}

// Lookup returns the entity of req.ID. Without Refresh, a cached or stored
// entity is returned as is; otherwise, or when nothing is stored, the carrier is
// pulled and the result persisted.
func (s *TrackingService) Lookup(ctx context.Context, req LookupRequest) (*domain.Entity, error) {
	id, err := domain.ParseTrackingID(req.ID)
	if err != nil {
		return nil, err
	}

	adapter, err := s.adapters.Get(id.Carrier)
	if err != nil {
		return nil, err
	}
	if err := ValidateParams(adapter, req.Params); err != nil {
		return nil, err
	}

	if !req.Refresh {
		if e := s.cached(ctx, id); e != nil {
			return e, nil
		}

		e, err := s.repo.GetEntity(ctx, id)
		if err == nil {
			s.remember(ctx, e)
			return e, nil
		}
		if !errors.Is(err, ports.ErrEntityNotFound) {
			return nil, fmt.Errorf("failed to load entity %s: %w", id, err)
		}
	}

	timeline, err := s.pull(ctx, id, req.Params, domain.UpdateMethodManualPull)
	if err != nil {
		s.logger.Warn("Carrier pull failed",
			logger.TrackingID(id),
			zap.String("category", string(ports.CategoryOf(err))),
			zap.Error(err),
		)
		if ports.CategoryOf(err) == ports.CategoryNotFound {
			return nil, fmt.Errorf("%w: %w", ErrEntityNotFound, err)
		}
		return nil, err
	}

	e, appended, err := s.apply(ctx, id, req.Params, timeline, domain.UpdateMethodManualPull)
	if errors.Is(err, ports.ErrEntityNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Entity refreshed",
		logger.TrackingID(id),
		zap.Int("appended", appended),
		zap.Int("events", e.EventNum()),
	)
	s.remember(ctx, e)

	return e, nil
}

// Status returns the latest status of a stored entity without calling the carrier.
func (s *TrackingService) Status(ctx context.Context, rawID string) (*domain.StatusSummary, error) {
	id, err := domain.ParseTrackingID(rawID)
	if err != nil {
		return nil, err
	}

	e := s.cached(ctx, id)
	if e == nil {
		e, err = s.repo.GetEntity(ctx, id)
		if errors.Is(err, ports.ErrEntityNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, id)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load entity %s: %w", id, err)
		}
		s.remember(ctx, e)
	}

	summary := e.LastStatus()
	if summary == nil {
		return nil, fmt.Errorf("%w: %s has no events", ErrEntityNotFound, id)
	}
	return summary, nil
}

// cached returns the cached entity or nil. Cache failures only degrade to a miss.
func (s *TrackingService) cached(ctx context.Context, id domain.TrackingID) *domain.Entity {
	if s.cache == nil {
		return nil
	}

	e, err := s.cache.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn("Entity cache read failed", logger.TrackingID(id), zap.Error(err))
		}
		return nil
	}
	return e
}

func (s *TrackingService) remember(ctx context.Context, e *domain.Entity) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, e); err != nil {
		s.logger.Warn("Entity cache write failed", logger.TrackingID(e.ID), zap.Error(err))
	}
}
