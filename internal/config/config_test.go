package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://golf@localhost/golf")
	t.Setenv("FEED_DRIVER", "postgres")
	t.Setenv("FETCH_RETRIES", "4")
	t.Setenv("FALLBACK_POLL_INTERVAL", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://golf@localhost/golf", cfg.DatabaseURL)
	assert.Equal(t, FeedPostgres, cfg.FeedDriver)
	assert.EqualValues(t, 4, cfg.FetchRetries)
	assert.Equal(t, 3*time.Second, cfg.FallbackPollInterval)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel, "untouched keys keep their default")
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nfeed_driver: realtime\nrealtime_url: wss://example.test/realtime/v1/websocket\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, FeedRealtime, cfg.FeedDriver)
	assert.Equal(t, "7001", cfg.Port, "environment wins over the file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown driver", func(c *Config) { c.FeedDriver = "kafka" }, false},
		{"realtime without url", func(c *Config) { c.FeedDriver = FeedRealtime }, false},
		{"production without secret", func(c *Config) { c.Env = "production" }, false},
		{"production with secret", func(c *Config) { c.Env = "production"; c.JWTSecret = "s3cret" }, true},
		{"zero poll interval", func(c *Config) { c.FallbackPollInterval = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "debug"
	assert.Equal(t, "debug", cfg.NewLogger().GetLevel().String())

	cfg.LogLevel = "nonsense"
	assert.Equal(t, "info", cfg.NewLogger().GetLevel().String())
}
