package config

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the configuration for the application.
// Tags used:
// - mapstructure: used by viper to unmarshal
// - default: default value to set if missing
// - required: if "true", error if missing
type AppConfig struct {
	// Environment specifies the runtime environment (e.g., development, production).
	Environment string `mapstructure:"APP_ENV" default:"development"`
	// LogLevel defines the logging verbosity (e.g., debug, info, error).
	LogLevel string `mapstructure:"LOG_LEVEL" default:"info"`
	// ServerPort is the port where the server will listen.
	ServerPort int `mapstructure:"SERVER_PORT" default:"8080"`
	// APIToken is the bearer token required on /v0 routes.
	APIToken string `mapstructure:"API_TOKEN" required:"true"`

	// Database holds the database configuration.
	Database DatabaseConfig `mapstructure:",squash"`

	// Redis holds the entity cache configuration.
	Redis RedisConfig `mapstructure:",squash"`

	// Sync holds the periodic synchronization settings.
	Sync SyncConfig `mapstructure:",squash"`

	// Registry points to optional overrides of the embedded code registries.
	Registry RegistryConfig `mapstructure:",squash"`

	// FedEx holds the FedEx API credentials.
	FedEx FedExConfig `mapstructure:",squash"`

	// SFExpress holds the SF Express API credentials.
	SFExpress SFExpressConfig `mapstructure:",squash"`

	// Proxy holds the optional upstream proxy for carrier calls.
	Proxy ProxyConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details.
type DatabaseConfig struct {
	// Driver selects the storage engine: "postgres" or "sqlite".
	Driver string `mapstructure:"DATABASE_DRIVER" default:"postgres"`
	// URL is the DSN for postgres or the file path for sqlite.
	URL string `mapstructure:"DATABASE_URL" required:"true"`
	// MaxOpenConns caps the connection pool (ignored by sqlite, which always uses one).
	MaxOpenConns int `mapstructure:"DATABASE_MAX_OPEN_CONNS" default:"20"`
}

// RedisConfig holds the Redis cache settings. An empty URL disables the cache.
type RedisConfig struct {
	// URL is the Redis connection URL (redis://[:password@]host[:port][/database]).
	URL string `mapstructure:"REDIS_URL"`
	// EntityTTL is how long a looked-up entity stays cached.
	EntityTTL time.Duration `mapstructure:"ENTITY_CACHE_TTL" default:"5m"`
}

// SyncConfig controls the periodic sync cycle.
type SyncConfig struct {
	// Interval is the delay between two sync cycles.
	Interval time.Duration `mapstructure:"SYNC_INTERVAL" default:"60s"`
	// Concurrency is the number of shipments processed in parallel within a cycle.
	Concurrency int `mapstructure:"SYNC_CONCURRENCY" default:"1"`
	// CarrierTimeout bounds every carrier call.
	CarrierTimeout time.Duration `mapstructure:"CARRIER_TIMEOUT" default:"30s"`
}

// RegistryConfig points to JSON files overriding the embedded registries.
type RegistryConfig struct {
	// StatusCodesFile maps canonical status codes to descriptions.
	StatusCodesFile string `mapstructure:"STATUS_CODES_FILE"`
	// ErrorCodesFile maps error codes to messages.
	ErrorCodesFile string `mapstructure:"ERROR_CODES_FILE"`
}

// FedExConfig holds the credentials for the FedEx APIs.
type FedExConfig struct {
	// TokenURL is the OAuth token endpoint.
	TokenURL string `mapstructure:"FEDEX_TOKEN_URL" default:"https://apis.fedex.com/oauth/token"`
	// TrackURL is the track-by-number endpoint.
	TrackURL string `mapstructure:"FEDEX_TRACK_URL" default:"https://apis.fedex.com/track/v1/trackingnumbers"`
	// ClientID is the OAuth client id.
	ClientID string `mapstructure:"FEDEX_CLIENT_ID"`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `mapstructure:"FEDEX_CLIENT_SECRET"`
}

// SFExpressConfig holds the credentials for the SF Express open platform.
type SFExpressConfig struct {
	// URL is the service endpoint.
	URL string `mapstructure:"SFEX_API_URL" default:"https://bspgw.sf-express.com/std/service"`
	// PartnerID is the customer code issued by SF Express.
	PartnerID string `mapstructure:"SFEX_PARTNER_ID"`
	// CheckWord is the secret used to sign requests.
	CheckWord string `mapstructure:"SFEX_CHECK_WORD"`
}

// ProxyConfig holds the upstream proxy used for outbound carrier calls.
type ProxyConfig struct {
	Enabled  bool   `mapstructure:"PROXY_ENABLED"`
	Hostname string `mapstructure:"PROXY_HOSTNAME"`
	Port     int    `mapstructure:"PROXY_PORT"`
	Username string `mapstructure:"PROXY_USERNAME"`
	Password string `mapstructure:"PROXY_PASSWORD"`
}

// Load loads configuration from .env files and environment variables.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.AutomaticEnv()

	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config AppConfig

	if err := processTags(v, &config); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := validateRequired(&config); err != nil {
		return nil, err
	}

	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER: %s", config.Database.Driver)
	}

	if config.Sync.Concurrency < 1 {
		config.Sync.Concurrency = 1
	}

	return &config, nil
}

// processTags iterates over the struct fields, binds env keys and sets default values in Viper.
func processTags(v *viper.Viper, config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := processTags(v, val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		key := field.Tag.Get("mapstructure")
		defaultValue := field.Tag.Get("default")

		if key != "" {
			if err := v.BindEnv(key); err != nil {
				return fmt.Errorf("bind env %s: %w", key, err)
			}
		}

		if key != "" && defaultValue != "" {
			v.SetDefault(key, defaultValue)
		}
	}
	return nil
}

// validateRequired checks if fields marked as required have non-zero values.
func validateRequired(config interface{}) error {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	t := val.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Type.Kind() == reflect.Struct {
			if err := validateRequired(val.Field(i).Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		required := field.Tag.Get("required")
		if required == "true" {
			value := val.Field(i)
			if isZero(value) {
				key := field.Tag.Get("mapstructure")
				return fmt.Errorf("missing required configuration: %s", key)
			}
		}
	}
	return nil
}

// isZero checks if a reflect.Value is the zero value for its type.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}
