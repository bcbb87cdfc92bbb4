package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const devSessionSecret = "dev-only-session-secret-change-me"

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL" default:"host=localhost user=postgres password=password dbname=jobtracker port=5432 sslmode=disable"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`

	SessionSecret  string        `env:"SESSION_SECRET" default:"dev-only-session-secret-change-me"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" default:"30m"`

	// Comma separated; "*" allows every origin.
	CORSAllowOrigins string `env:"CORS_ALLOW_ORIGINS" default:"*"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" default:"gemini-2.5-flash"`

	GmailCredentialsFile string        `env:"GMAIL_CREDENTIALS_FILE" default:"credential.json"`
	GmailTokenFile       string        `env:"GMAIL_TOKEN_FILE" default:"token.json"`
	EmailSyncInterval    time.Duration `env:"EMAIL_SYNC_INTERVAL" default:"1m"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.IsProduction() && (c.SessionSecret == devSessionSecret || len(c.SessionSecret) < 32) {
		return errors.New("SESSION_SECRET must be set to at least 32 characters in production")
	}
	if c.SessionIdleTTL <= 0 {
		return errors.New("SESSION_IDLE_TTL must be positive")
	}
	if c.EmailSyncInterval < 10*time.Second {
		return fmt.Errorf("EMAIL_SYNC_INTERVAL must be at least 10s, got %s", c.EmailSyncInterval)
	}
	return nil
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) LLMEnabled() bool {
	return c.GeminiAPIKey != ""
}
