package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, time.Minute, cfg.EmailSyncInterval)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins())
	assert.True(t, cfg.LLMEnabled())
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:       "postgres://x",
		SessionSecret:     devSessionSecret,
		SessionIdleTTL:    time.Minute,
		EmailSyncInterval: time.Minute,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"production with dev secret", func(c *Config) { c.AppEnv = "production" }, true},
		{"production with strong secret", func(c *Config) {
			c.AppEnv = "production"
			c.SessionSecret = "0123456789abcdef0123456789abcdef"
		}, false},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }, true},
		{"zero idle ttl", func(c *Config) { c.SessionIdleTTL = 0 }, true},
		{"sync interval too short", func(c *Config) { c.EmailSyncInterval = time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
