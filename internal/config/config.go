// Package config loads runtime configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the server.
type Config struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Addr         string        `envconfig:"APP_ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"` // text or json

	DBPath string `envconfig:"DB_PATH" default:"devflow.db"`

	JWTSecret  string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"168h"`

	// Rate limit applied to the auth endpoints, requests per minute per IP.
	AuthRateLimit int `envconfig:"AUTH_RATE_LIMIT" default:"10"`

	GitHubClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	// OAuthRedirectBase is the externally reachable root the providers
	// redirect back to, e.g. https://devflow.example.com.
	OAuthRedirectBase string `envconfig:"OAUTH_REDIRECT_BASE" default:"http://localhost:8080"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL"`
}

// Load reads the environment into a Config. A .env file, if present, is
// loaded first; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if (c.GitHubClientID == "") != (c.GitHubClientSecret == "") {
		return errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together")
	}
	if (c.GoogleClientID == "") != (c.GoogleClientSecret == "") {
		return errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == "production"
}
