package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("DATABASE_DRIVER")
	os.Unsetenv("SYNC_INTERVAL")

	t.Setenv("API_TOKEN", "token_default")
	t.Setenv("DATABASE_URL", "postgres://localhost/whereis")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 60*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 30*time.Second, cfg.Sync.CarrierTimeout)
	assert.Equal(t, 1, cfg.Sync.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Redis.EntityTTL)
	assert.Equal(t, "https://apis.fedex.com/oauth/token", cfg.FedEx.TokenURL)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "/tmp/whereis.db")
	t.Setenv("SYNC_INTERVAL", "2m")
	t.Setenv("SYNC_CONCURRENCY", "4")
	t.Setenv("SFEX_PARTNER_ID", "partner")
	t.Setenv("PROXY_ENABLED", "true")
	t.Setenv("PROXY_PORT", "3128")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/whereis.db", cfg.Database.URL)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 4, cfg.Sync.Concurrency)
	assert.Equal(t, "partner", cfg.SFExpress.PartnerID)
	assert.True(t, cfg.Proxy.Enabled)
	assert.Equal(t, 3128, cfg.Proxy.Port)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
API_TOKEN=staging_token
DATABASE_URL=postgres://staging/whereis
FEDEX_CLIENT_ID=client
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "client", cfg.FedEx.ClientID)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Unsetenv("API_TOKEN")
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

// TestLoad_UnsupportedDriver verifies that only known storage drivers are accepted.
func TestLoad_UnsupportedDriver(t *testing.T) {
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("DATABASE_URL", "mysql://localhost")
	t.Setenv("DATABASE_DRIVER", "mysql")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "unsupported DATABASE_DRIVER")
}
