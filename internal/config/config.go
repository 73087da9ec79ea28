// Package config handles loading and validating runtime configuration for the golf
// tournaments API and the golfctl CLI.
// Configuration values (like the database URL and API port) come from the environment
// rather than being hardcoded, so the same binary runs in development and production
// with only the environment changed.
//
// Values are layered, lowest precedence first:
//  1. the defaults returned by Default()
//  2. a YAML file, if CONFIG_FILE points at one
//  3. environment variables (DATABASE_URL -> database_url, FEED_DRIVER -> feed_driver, ...)
//
// A .env file in the working directory is loaded into the environment first, which is
// convenient in development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	// godotenv reads a .env file and loads its key=value pairs into the process environment.
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Feed drivers select where live score changes come from.
const (
	// FeedBroker publishes changes from the API's own score writes. Single instance only.
	FeedBroker = "broker"
	// FeedPostgres listens to the score_changes NOTIFY channel.
	FeedPostgres = "postgres"
	// FeedRealtime follows the hosted realtime websocket service.
	FeedRealtime = "realtime"
)

// Config holds all runtime configuration values for the application.
type Config struct {
	Port          string `koanf:"port"`           // TCP port the HTTP server listens on
	Env           string `koanf:"env"`            // "development" or "production"
	LogLevel      string `koanf:"log_level"`      // debug, info, warn, error
	DatabaseURL   string `koanf:"database_url"`   // PostgreSQL connection string
	MigrationsDir string `koanf:"migrations_dir"` // Directory holding the *.sql migration files
	JWTSecret     string `koanf:"jwt_secret"`     // HS256 secret of the auth provider; empty skips verification in development

	FeedDriver     string `koanf:"feed_driver"`      // broker, postgres or realtime
	RealtimeURL    string `koanf:"realtime_url"`     // e.g. wss://<project>.supabase.co/realtime/v1/websocket
	RealtimeAPIKey string `koanf:"realtime_api_key"` // anon key of the realtime service

	OpenAIAPIKey  string `koanf:"openai_api_key"`  // Empty disables model-written advice
	OpenAIBaseURL string `koanf:"openai_base_url"` // Override for OpenAI-compatible gateways
	OpenAIModel   string `koanf:"openai_model"`

	FetchRetries         uint64        `koanf:"fetch_retries"`          // Extra attempts for a failed leaderboard fetch
	FetchRetryBase       time.Duration `koanf:"fetch_retry_base"`       // First backoff delay between attempts
	FallbackPollInterval time.Duration `koanf:"fallback_poll_interval"` // Polling period while the change feed is down
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Port:                 "8080",
		Env:                  "development",
		LogLevel:             "info",
		MigrationsDir:        "migrations",
		FeedDriver:           FeedBroker,
		OpenAIModel:          "gpt-4o-mini",
		FetchRetries:         2,
		FetchRetryBase:       100 * time.Millisecond,
		FallbackPollInterval: 15 * time.Second,
	}
}

// Load reads configuration from the environment (and optional .env / YAML files) and
// validates it.
func Load() (*Config, error) {
	// The error is ignored: a missing .env is normal outside development.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	// DATABASE_URL -> database_url. Keys keep their underscores to match the koanf tags.
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail later and less clearly.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port must not be empty")
	}
	switch c.FeedDriver {
	case FeedBroker, FeedPostgres:
	case FeedRealtime:
		if c.RealtimeURL == "" {
			return errors.New("realtime_url is required when feed_driver is realtime")
		}
	default:
		return fmt.Errorf("unknown feed_driver %q", c.FeedDriver)
	}
	if c.FallbackPollInterval <= 0 {
		return errors.New("fallback_poll_interval must be positive")
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("jwt_secret is required in production")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// NewLogger builds the application logger: JSON lines in production, coloured text
// in development.
func (c *Config) NewLogger() *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
	}
	if c.IsProduction() {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(os.Stderr, opts)
}
