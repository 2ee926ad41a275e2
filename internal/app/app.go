// Package app wires configuration into the tracking services shared by the
// API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"whereis/internal/core/cache"
	"whereis/internal/core/config"
	"whereis/internal/core/database"
	"whereis/internal/core/httpclient"
	"whereis/internal/core/logger"
	"whereis/internal/core/metrics"
	"whereis/internal/core/proxy"
	"whereis/internal/features/tracking/adapters"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
	"whereis/internal/features/tracking/service"
	"whereis/internal/features/tracking/statusmap"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// App holds the long-lived dependencies of the process.
type App struct {
	Config   *config.AppConfig
	DB       *database.DB
	Cache    cache.Cache
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Errors   *domain.ErrorRegistry
	Statuses *domain.StatusRegistry

	Tracking *service.TrackingService
	Sync     *service.SyncService
}

// New opens storage and the optional cache and builds the services.
// The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	l := logger.Get()

	statuses, err := domain.LoadStatusRegistry(cfg.Registry.StatusCodesFile)
	if err != nil {
		return nil, err
	}
	errs, err := domain.LoadErrorRegistry(cfg.Registry.ErrorCodesFile)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	l.Info("Database ready", zap.String("driver", db.Driver()))

	a := &App{
		Config:   cfg,
		DB:       db,
		Registry: reg,
		Metrics:  m,
		Errors:   errs,
		Statuses: statuses,
	}

	var entityCache ports.EntityCache
	if cfg.Redis.URL != "" {
		redisAdapter, err := cache.NewRedisAdapter(cfg.Redis.URL, "whereis")
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := redisAdapter.Ping(ctx); err != nil {
			// The cache is optional; lookups fall through to storage.
			l.Warn("Redis unreachable, entity cache degraded", zap.Error(err))
		}
		a.Cache = redisAdapter
		entityCache = adapters.NewRedisEntityCache(redisAdapter, cfg.Redis.EntityTTL)
	}

	client := httpclient.NewProxiedClient(cfg.Sync.CarrierTimeout, proxy.FromConfig(cfg.Proxy))
	mapper := statusmap.Default(statusmap.WithLogger(logger.Named("statusmap")), statusmap.WithMetrics(m))

	registry := service.NewAdapterRegistry(
		adapters.NewFedExAdapter(cfg.FedEx, client, mapper, statuses),
		adapters.NewSFExpressAdapter(cfg.SFExpress, client, mapper, statuses),
	)
	repo := adapters.NewSQLRepository(db)

	a.Tracking = service.NewTrackingService(registry, repo, entityCache, m, cfg.Sync.CarrierTimeout)
	a.Sync = service.NewSyncService(registry, repo, entityCache, m, cfg.Sync.CarrierTimeout, cfg.Sync.Concurrency)

	return a, nil
}

// Close releases storage and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
