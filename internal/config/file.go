package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	UpstreamURL  string `yaml:"upstream_url"`
	ServerPort   string `yaml:"server_port"`
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`
	VoyageAPIKey string `yaml:"voyage_api_key"`
	VoyageModel  string `yaml:"voyage_model"`
	UserAgent    string `yaml:"user_agent"`
	Timeout      string `yaml:"timeout"`
	TokenFile    string `yaml:"token_file"`
}

// LoadFromFile loads config from a YAML file. upstream_url is required.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.UpstreamURL == "" {
		return nil, ErrMissingUpstreamURL
	}
	c := &Config{
		UpstreamURL:  f.UpstreamURL,
		ServerPort:   f.ServerPort,
		DatabaseURL:  f.DatabaseURL,
		RedisURL:     f.RedisURL,
		VoyageAPIKey: f.VoyageAPIKey,
		VoyageModel:  f.VoyageModel,
		UserAgent:    f.UserAgent,
		Timeout:      30 * time.Second,
		TokenFile:    f.TokenFile,
	}
	if f.Timeout != "" {
		if d, err := time.ParseDuration(f.Timeout); err == nil {
			c.Timeout = d
		}
	}
	applyDefaults(c)
	return c, nil
}
