package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"whereis/internal/core/logger"
	"whereis/internal/core/metrics"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CycleReport summarizes one sync cycle.
type CycleReport struct {
	Pending   int
	Updated   int
	Unchanged int
	Failed    int
	Appended  int
	Duration  time.Duration
}

// SyncService keeps pending shipments up to date with their carriers.
type SyncService struct {
	pipeline
	cache       ports.EntityCache
	concurrency int
	logger      *zap.Logger
}

// NewSyncService creates a SyncService processing up to concurrency shipments
// at a time. entityCache may be nil; updated entities are evicted from it.
func NewSyncService(adapters *AdapterRegistry, repo ports.Repository, entityCache ports.EntityCache, m *metrics.Metrics, carrierTimeout time.Duration, concurrency int) *SyncService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SyncService{
		pipeline: pipeline{
			adapters:       adapters,
			repo:           repo,
			metrics:        m,
			carrierTimeout: carrierTimeout,
		},
		cache:       entityCache,
		concurrency: concurrency,
		logger:      logger.Named("sync"),
	}
}

// RunCycle pulls every pending shipment once. A failing shipment is logged and
// skipped; it never stops the cycle. Only listing the backlog can fail the cycle.
func (s *SyncService) RunCycle(ctx context.Context) (CycleReport, error) {
	start := time.Now()

	pending, err := s.repo.Pending(ctx)
	if err != nil {
		return CycleReport{}, fmt.Errorf("failed to list pending shipments: %w", err)
	}

	var updated, unchanged, failed, appended atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, shipment := range pending {
		shipment := shipment
		g.Go(func() error {
			n, err := s.syncShipment(gctx, shipment)
			switch {
			case err != nil:
				failed.Add(1)
				s.metrics.IncrementSyncShipment("failed")
				s.logger.Error("Shipment sync failed",
					logger.TrackingID(shipment.ID),
					zap.String("category", string(ports.CategoryOf(err))),
					zap.Error(err),
				)
			case n > 0:
				updated.Add(1)
				appended.Add(int64(n))
				s.metrics.IncrementSyncShipment("updated")
			default:
				unchanged.Add(1)
				s.metrics.IncrementSyncShipment("unchanged")
			}
			// Per-shipment failures are contained.
			return nil
		})
	}
	_ = g.Wait()

	report := CycleReport{
		Pending:   len(pending),
		Updated:   int(updated.Load()),
		Unchanged: int(unchanged.Load()),
		Failed:    int(failed.Load()),
		Appended:  int(appended.Load()),
		Duration:  time.Since(start),
	}
	s.metrics.ObserveSyncCycle(report.Duration)

	s.logger.Info("Sync cycle finished",
		zap.Int("pending", report.Pending),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("failed", report.Failed),
		zap.Int("appended", report.Appended),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

func (s *SyncService) syncShipment(ctx context.Context, shipment ports.PendingShipment) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	timeline, err := s.pull(ctx, shipment.ID, shipment.Params, domain.UpdateMethodAutoPull)
	if err != nil {
		return 0, err
	}

	_, appended, err := s.apply(ctx, shipment.ID, shipment.Params, timeline, domain.UpdateMethodAutoPull)
	if err != nil {
		return 0, err
	}

	if appended > 0 && s.cache != nil {
		if err := s.cache.Delete(ctx, shipment.ID); err != nil {
			s.logger.Warn("Entity cache eviction failed", logger.TrackingID(shipment.ID), zap.Error(err))
		}
	}

	return appended, nil
}

// Start runs a cycle every interval until ctx is cancelled. Cycles never overlap.
func (s *SyncService) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunCycle(ctx); err != nil {
				s.logger.Error("Sync cycle failed", zap.Error(err))
			}
		}
	}
}
