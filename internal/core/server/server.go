package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sort"
	"sync"

	"whereis/internal/core/config"
	"whereis/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "whereis/docs/swagger"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// API is the authenticated /v0 route group.
	API fiber.Router
	// cfg holds the application configuration.
	cfg *config.AppConfig

	mu     sync.RWMutex
	checks map[string]HealthCheck
}

// New creates a new Server instance with configured middleware.
// Metrics are served from gatherer; pass nil to use the default registry.
func New(cfg *config.AppConfig, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "whereis",
	})

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
	}))

	s := &Server{
		App:    app,
		cfg:    cfg,
		checks: map[string]HealthCheck{},
	}

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	app.Get("/healthz", s.health)

	s.API = app.Group("/v0", keyauth.New(keyauth.Config{
		AuthScheme: "Bearer",
		Validator: func(_ *fiber.Ctx, key string) (bool, error) {
			if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.APIToken)) == 1 {
				return true, nil
			}
			return false, keyauth.ErrMissingOrMalformedAPIKey
		},
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			rayID, _ := c.Locals("requestid").(string)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"code":    "401-01",
				"message": "missing or invalid bearer token",
				"ray_id":  rayID,
			})
		},
	}))

	return s
}

// AddHealthCheck registers a named dependency check served by /healthz.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

func (s *Server) health(c *fiber.Ctx) error {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	status := fiber.StatusOK
	result := fiber.Map{}
	for _, name := range names {
		s.mu.RLock()
		check := s.checks[name]
		s.mu.RUnlock()

		if err := check(c.UserContext()); err != nil {
			status = fiber.StatusServiceUnavailable
			result[name] = err.Error()
			logger.Get().Warn("Health check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		result[name] = "ok"
	}

	return c.Status(status).JSON(result)
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}
