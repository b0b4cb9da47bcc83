// Commendatus - Collaborative Filtering Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/commendatus

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/commendatus/config.yaml",
	"/etc/commendatus/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps flat environment variable names to config paths.
var envMappings = map[string]string{
	"host":        "server.host",
	"port":        "server.port",
	"timeout":     "server.timeout",
	"api_key":     "server.api_key",
	"rate_limit":  "server.rate_limit",
	"http_host":   "server.host",
	"http_port":   "server.port",
	"server_host": "server.host",
	"server_port": "server.port",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"neighborhood": "engine.neighborhood",
	"default_k":    "engine.default_k",
	"max_k":        "engine.max_k",

	"cache_capacity": "cache.capacity",
	"cache_ttl":      "cache.ttl",

	"store_enabled": "store.enabled",
	"store_path":    "store.path",
	"model_path":    "store.model_path",

	"session_max_age":        "session.max_age",
	"session_sweep_interval": "session.sweep_interval",

	"dataset_path":     "dataset.path",
	"sample_rows":      "dataset.sample_rows",
	"sample_top_users": "dataset.sample_top_users",
	"sample_top_items": "dataset.sample_top_items",

	"training_interval": "training.interval",

	"prewarm_enabled":  "prewarm.enabled",
	"prewarm_interval": "prewarm.interval",
	"prewarm_users":    "prewarm.users",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unknown variables are dropped so unrelated process environment does
// not leak into the configuration.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - LOG_LEVEL -> logging.level
//   - CACHE_TTL -> cache.ttl
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}
