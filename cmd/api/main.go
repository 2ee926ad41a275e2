package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"whereis/internal/app"
	"whereis/internal/core/config"
	"whereis/internal/core/logger"
	"whereis/internal/core/server"
	trackinghandler "whereis/internal/features/tracking/handler"

	"go.uber.org/zap"
)

// @title whereis API
// @version 1.0
// @description Normalized FedEx and SF Express shipment tracking.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
		zap.String("database_driver", cfg.Database.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		l.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			l.Error("Failed to close application", zap.Error(err))
		}
	}()

	trackingHdl := trackinghandler.NewTrackingHandler(a.Tracking, a.Errors)

	srv := server.New(cfg, a.Registry)
	srv.AddHealthCheck("database", a.DB.PingContext)
	if a.Cache != nil {
		srv.AddHealthCheck("cache", a.Cache.Ping)
	}

	// Register Routes
	srv.API.Get("/whereis/:id", trackingHdl.GetWhereIs)
	srv.API.Get("/status/:id", trackingHdl.GetStatus)

	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		a.Sync.Start(ctx, cfg.Sync.Interval)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			l.Error("Server failed", zap.Error(err))
		}
		stop()
	case <-ctx.Done():
		l.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}

	<-syncDone
	l.Info("Application stopped")
}
