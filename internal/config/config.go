package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName        string
	AppEnv         string
	AppPort        string
	Timezone       *time.Location
	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	OTelEndpoint   string
	Aggregation    AggregationConfig
	RateLimit      RateLimitConfig
}

// AggregationConfig carries the default result sizes and lookback window.
type AggregationConfig struct {
	ForumLimit    int
	DeadlineLimit int
	MessageLimit  int
	Lookback      time.Duration
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	SetDefaults(v)

	return FromViper(v)
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "GEMA Activity API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("aggregation.forum_limit", 10)
	v.SetDefault("aggregation.deadline_limit", 5)
	v.SetDefault("aggregation.message_limit", 5)
	v.SetDefault("aggregation.lookback", "2016h")
	v.SetDefault("ratelimit.max", 60)
	v.SetDefault("ratelimit.window", "1m")
}

// FromViper builds and validates a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	location, err := time.LoadLocation(v.GetString("app.timezone"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid app timezone: %w", err)
	}

	lookback, err := time.ParseDuration(v.GetString("aggregation.lookback"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid aggregation lookback: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("ratelimit.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		AppPort:        v.GetString("app.port"),
		Timezone:       location,
		DatabaseDriver: strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:    v.GetString("database.url"),
		RedisURL:       v.GetString("redis.url"),
		JWTSecret:      v.GetString("jwt.secret"),
		OTelEndpoint:   v.GetString("otel.endpoint"),
		Aggregation: AggregationConfig{
			ForumLimit:    v.GetInt("aggregation.forum_limit"),
			DeadlineLimit: v.GetInt("aggregation.deadline_limit"),
			MessageLimit:  v.GetInt("aggregation.message_limit"),
			Lookback:      lookback,
		},
		RateLimit: RateLimitConfig{
			Max:    v.GetInt("ratelimit.max"),
			Window: window,
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.Aggregation.ForumLimit <= 0 {
		cfg.Aggregation.ForumLimit = 10
	}
	if cfg.Aggregation.DeadlineLimit <= 0 {
		cfg.Aggregation.DeadlineLimit = 5
	}
	if cfg.Aggregation.MessageLimit <= 0 {
		cfg.Aggregation.MessageLimit = 5
	}
	if cfg.Aggregation.Lookback <= 0 {
		cfg.Aggregation.Lookback = 12 * 7 * 24 * time.Hour
	}
	if cfg.RateLimit.Max <= 0 {
		cfg.RateLimit.Max = 60
	}

	return cfg, nil
}
