// Package httpclient builds the HTTP clients used for carrier calls.
package httpclient

import (
	"net/http"
	"time"

	"whereis/internal/core/logger"
	"whereis/internal/core/proxy"

	"go.uber.org/zap"
)

// LoggingRoundTripper logs one entry per outbound call. Successful calls are
// logged at debug level, non-2xx responses at warn and transport errors at error.
type LoggingRoundTripper struct {
	// Next executes the request.
	Next http.RoundTripper
	// Logger receives the entries; nil uses the global logger.
	Logger *zap.Logger
}

// RoundTrip implements http.RoundTripper.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	l := lrt.Logger
	if l == nil {
		l = logger.Named("http")
	}

	start := time.Now()
	resp, err := lrt.Next.RoundTrip(req)

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("url", req.URL.Redacted()),
		zap.Duration("duration", time.Since(start)),
	}

	switch {
	case err != nil:
		l.Error("Carrier request failed", append(fields, zap.Error(err))...)
	case resp.StatusCode >= 300:
		l.Warn("Carrier request returned non-2xx", append(fields, zap.Int("status_code", resp.StatusCode))...)
	default:
		l.Debug("Carrier request completed", append(fields, zap.Int("status_code", resp.StatusCode))...)
	}

	return resp, err
}

// NewClient returns a logging http.Client without a proxy.
func NewClient(timeout time.Duration) *http.Client {
	return NewProxiedClient(timeout, proxy.Settings{})
}

// NewProxiedClient returns a logging http.Client that routes requests through
// the upstream proxy in settings when one is configured.
func NewProxiedClient(timeout time.Duration, settings proxy.Settings) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if u := settings.URL(); u != nil {
		transport.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{Next: transport},
		Timeout:   timeout,
	}
}
