package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry.
const ServiceName = "whereis"

var globalLogger *zap.Logger

// Init builds the global logger. "production" writes sampled JSON with ISO8601
// timestamps; any other environment writes colored console output. An unknown
// level falls back to info.
func Init(environment string, level string) error {
	var cfg zap.Config

	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	lvl, levelErr := zapcore.ParseLevel(level)
	if levelErr != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.InitialFields = map[string]any{
		"service": ServiceName,
		"env":     environment,
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	if levelErr != nil {
		l.Warn("Unknown log level, using info", zap.String("level", level))
	}

	globalLogger = l
	return nil
}

// Get returns the global logger, or a no-op logger before Init.
func Get() *zap.Logger {
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// Named returns the global logger scoped to a component (e.g. "fedex", "sync").
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// TrackingID is the field identifying a shipment in log entries.
func TrackingID(id fmt.Stringer) zap.Field {
	return zap.Stringer("tracking_id", id)
}

// Sync flushes any buffered log entries.
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}
