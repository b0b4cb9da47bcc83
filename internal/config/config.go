// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

// Package config defines the service configuration and loads it from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in rising priority.
package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/commendatus/internal/cache"
	"github.com/tomtom215/commendatus/internal/dataset"
	"github.com/tomtom215/commendatus/internal/recommend"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0.
	Host string `json:"host" koanf:"host"`

	// Port is the listen port. Default: 8080.
	Port int `json:"port" koanf:"port"`

	// Timeout bounds request read/write. Default: 30s.
	Timeout time.Duration `json:"timeout" koanf:"timeout"`

	// APIKey, when set, is required in the X-API-Key header on /api
	// routes. Empty disables the check.
	APIKey string `json:"-" koanf:"api_key"`

	// RateLimit is the per-IP request budget per minute. Default: 300.
	// Zero disables rate limiting.
	RateLimit int `json:"rate_limit" koanf:"rate_limit"`

	// CORSOrigins lists allowed CORS origins. Empty allows all.
	CORSOrigins []string `json:"cors_origins" koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Level is the minimum log level. Default: info.
	Level string `json:"level" koanf:"level"`

	// Format is json or console. Default: json.
	Format string `json:"format" koanf:"format"`

	// Caller includes caller file and line. Default: false.
	Caller bool `json:"caller" koanf:"caller"`
}

// StoreConfig configures the persistent cache tier.
type StoreConfig struct {
	// Enabled toggles the BadgerDB tier. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Path is the BadgerDB directory. Default: data/cache.
	Path string `json:"path" koanf:"path"`

	// ModelPath is where the trained model is persisted so restarts
	// skip retraining. Empty disables model persistence.
	// Default: data/model.gob.gz.
	ModelPath string `json:"model_path" koanf:"model_path"`
}

// SessionConfig configures the in-memory session registry.
type SessionConfig struct {
	// MaxAge is how long a session may live before the sweeper drops
	// it. Default: 30m.
	MaxAge time.Duration `json:"max_age" koanf:"max_age"`

	// SweepInterval is how often expired sessions are swept. Default: 5m.
	SweepInterval time.Duration `json:"sweep_interval" koanf:"sweep_interval"`
}

// TrainingConfig configures scheduled retraining.
type TrainingConfig struct {
	// Interval between retraining runs. Zero disables the scheduler.
	// Default: 0.
	Interval time.Duration `json:"interval" koanf:"interval"`
}

// PrewarmConfig configures scheduled cache prewarming.
type PrewarmConfig struct {
	// Enabled toggles the prewarm scheduler. Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Interval between prewarm sweeps. Default: 24h.
	Interval time.Duration `json:"interval" koanf:"interval"`

	// Users is how many of the most active users to warm. Default: 20.
	Users int `json:"users" koanf:"users"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig     `json:"server" koanf:"server"`
	Logging  LoggingConfig    `json:"logging" koanf:"logging"`
	Session  SessionConfig    `json:"session" koanf:"session"`
	Engine   recommend.Config `json:"engine" koanf:"engine"`
	Cache    cache.Config     `json:"cache" koanf:"cache"`
	Store    StoreConfig      `json:"store" koanf:"store"`
	Dataset  dataset.Config   `json:"dataset" koanf:"dataset"`
	Training TrainingConfig   `json:"training" koanf:"training"`
	Prewarm  PrewarmConfig    `json:"prewarm" koanf:"prewarm"`
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			Timeout:   30 * time.Second,
			RateLimit: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: recommend.DefaultConfig(),
		Cache:  cache.DefaultConfig(),
		Session: SessionConfig{
			MaxAge:        30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Store: StoreConfig{
			Enabled:   true,
			Path:      "data/cache",
			ModelPath: "data/model.gob.gz",
		},
		Dataset: dataset.DefaultConfig(),
		Training: TrainingConfig{
			Interval: 0,
		},
		Prewarm: PrewarmConfig{
			Enabled:  true,
			Interval: 24 * time.Hour,
			Users:    20,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %d", c.Server.RateLimit)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if c.Session.MaxAge <= 0 {
		return fmt.Errorf("session.max_age must be positive, got %s", c.Session.MaxAge)
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive, got %s", c.Session.SweepInterval)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}
	if c.Training.Interval < 0 {
		return fmt.Errorf("training.interval must not be negative, got %s", c.Training.Interval)
	}
	if c.Prewarm.Enabled {
		if c.Prewarm.Interval <= 0 {
			return fmt.Errorf("prewarm.interval must be positive, got %s", c.Prewarm.Interval)
		}
		if c.Prewarm.Users <= 0 {
			return fmt.Errorf("prewarm.users must be positive, got %d", c.Prewarm.Users)
		}
	}
	return nil
}
