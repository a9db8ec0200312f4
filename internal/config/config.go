// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

// Package config defines the application configuration and its loader.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//
//   - Environment variables (STREAMPULSE_ prefix, e.g. STREAMPULSE_SERVER_PORT)
//   - Config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Model     ModelConfig     `koanf:"model"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimitPerMinute caps requests per client IP per minute.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects and configures the snapshot store backend.
type StorageConfig struct {
	// Backend is "csv" or "duckdb". Both read the same flat files under
	// DataDir; duckdb routes snapshot reads through an in-memory
	// analytical database instead of the stdlib CSV reader.
	Backend string `koanf:"backend"`

	// DataDir holds users.csv, interactions.csv and shows.csv.
	DataDir string `koanf:"data_dir"`
}

// ModelConfig locates the pre-trained churn model artifact.
type ModelConfig struct {
	// Path is the JSON model artifact, loaded once at startup and
	// immutable for the process lifetime.
	Path string `koanf:"path"`
}

// AnalyticsConfig tunes the analytics pipeline.
type AnalyticsConfig struct {
	// ReferenceTime pins "today" for the churn pipeline when requests do
	// not pass reference_time explicitly. RFC3339 or YYYY-MM-DD. Leaving
	// it empty makes reference_time a required request parameter; the
	// pipeline never falls back to wall-clock.
	ReferenceTime string `koanf:"reference_time"`

	// RenderCacheTTL bounds how long classifier output is memoized so the
	// handful of requests in one dashboard render share a single
	// inference pass.
	RenderCacheTTL time.Duration `koanf:"render_cache_ttl"`
}

// ParseReferenceTime returns the configured reference time, or ok=false
// when none is configured.
func (c AnalyticsConfig) ParseReferenceTime() (time.Time, bool, error) {
	if c.ReferenceTime == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, c.ReferenceTime); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid analytics.reference_time %q", c.ReferenceTime)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	switch c.Storage.Backend {
	case "csv", "duckdb":
	default:
		return fmt.Errorf("storage.backend must be csv or duckdb, got %q", c.Storage.Backend)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if c.Analytics.RenderCacheTTL < 0 {
		return fmt.Errorf("analytics.render_cache_ttl must not be negative")
	}
	if _, _, err := c.Analytics.ParseReferenceTime(); err != nil {
		return err
	}
	return nil
}
