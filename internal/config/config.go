package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingUpstreamURL is returned when no upstream API base URL is configured.
var ErrMissingUpstreamURL = errors.New("NETTUBE_UPSTREAM_URL is required")

// Config holds application configuration. Only the upstream API URL is
// required; the mirror, cache and embeddings are optional layers that
// switch on when their settings are present.
type Config struct {
	UpstreamURL  string        `yaml:"upstream_url" env:"NETTUBE_UPSTREAM_URL"`
	ServerPort   string        `yaml:"server_port" env:"NETTUBE_PORT"`
	DatabaseURL  string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL     string        `yaml:"redis_url" env:"REDIS_URL"`
	VoyageAPIKey string        `yaml:"voyage_api_key" env:"VOYAGE_API_KEY"`
	VoyageModel  string        `yaml:"voyage_model" env:"VOYAGE_MODEL"`
	UserAgent    string        `yaml:"user_agent" env:"NETTUBE_USER_AGENT"`
	Timeout      time.Duration `yaml:"timeout" env:"NETTUBE_TIMEOUT"`
	TokenFile    string        `yaml:"token_file" env:"NETTUBE_TOKEN_FILE"`
}

// Load builds config from environment variables. When
// NETTUBE_UPSTREAM_URL is unset it first tries .env.local and .env in
// the working directory. NETTUBE_UPSTREAM_URL is required; everything
// else is optional.
func Load() (*Config, error) {
	if os.Getenv("NETTUBE_UPSTREAM_URL") == "" {
		// Already-set variables win over file values.
		_ = godotenv.Load(".env.local", ".env")
	}
	c := &Config{
		UpstreamURL:  os.Getenv("NETTUBE_UPSTREAM_URL"),
		ServerPort:   os.Getenv("NETTUBE_PORT"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		VoyageAPIKey: os.Getenv("VOYAGE_API_KEY"),
		VoyageModel:  os.Getenv("VOYAGE_MODEL"),
		UserAgent:    os.Getenv("NETTUBE_USER_AGENT"),
		Timeout:      30 * time.Second,
		TokenFile:    os.Getenv("NETTUBE_TOKEN_FILE"),
	}
	if s := os.Getenv("NETTUBE_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	applyDefaults(c)
	if c.UpstreamURL == "" {
		return nil, ErrMissingUpstreamURL
	}
	return c, nil
}

func applyDefaults(c *Config) {
	if c.ServerPort == "" {
		c.ServerPort = "8080"
	}
	if c.UserAgent == "" {
		c.UserAgent = "NetTube/1.0"
	}
	if c.TokenFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.TokenFile = filepath.Join(dir, "nettube", "session.json")
		} else {
			c.TokenFile = "session.json"
		}
	}
}
