// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"zero timeout", func(c *Config) { c.Server.Timeout = 0 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
		{"bad engine config", func(c *Config) { c.Engine.Neighborhood = -1 }},
		{"bad cache config", func(c *Config) { c.Cache.Capacity = 0 }},
		{"bad dataset config", func(c *Config) { c.Dataset.Path = "" }},
		{"store enabled without path", func(c *Config) { c.Store.Path = "" }},
		{"zero session max age", func(c *Config) { c.Session.MaxAge = 0 }},
		{"zero session sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"negative training interval", func(c *Config) { c.Training.Interval = -time.Hour }},
		{"prewarm enabled without users", func(c *Config) { c.Prewarm.Users = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() succeeded, want error")
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Cache.TTL = %s, want 24h", cfg.Cache.TTL)
	}
	if cfg.Engine.Neighborhood != 20 {
		t.Errorf("Engine.Neighborhood = %d, want 20", cfg.Engine.Neighborhood)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "server:\n  port: 9001\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9002 {
		t.Errorf("Server.Port = %d, want env override 9002", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want file value debug", cfg.Logging.Level)
	}
}

func TestLoad_DurationFromEnv(t *testing.T) {
	t.Setenv("CACHE_TTL", "1h30m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := 90 * time.Minute; cfg.Cache.TTL != want {
		t.Errorf("Cache.TTL = %s, want %s", cfg.Cache.TTL, want)
	}
}

func TestLoad_UnknownEnvIgnored(t *testing.T) {
	t.Setenv("SOME_UNRELATED_VARIABLE", "junk")

	if _, err := Load(); err != nil {
		t.Errorf("Load() with unrelated env error = %v", err)
	}
}

func TestLoad_InvalidFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: -5\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := Load(); err == nil {
		t.Error("Load() with invalid port succeeded")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"PREWARM_USERS", "prewarm.users"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
