// StreamPulse - Streaming Churn Analytics Dashboard
// Copyright 2026 Aiotrix
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aiotrix/streampulse

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a temp dir so no stray config.yaml interferes.
	chdirTemp(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8686 {
		t.Errorf("Port = %d, want 8686", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "csv" || cfg.Storage.DataDir != "data" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Model.Path != "models/churn_model.json" {
		t.Errorf("Model.Path = %q", cfg.Model.Path)
	}
	if cfg.Analytics.RenderCacheTTL != 30*time.Second {
		t.Errorf("RenderCacheTTL = %v", cfg.Analytics.RenderCacheTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	contents := `
server:
  port: 9000
storage:
  backend: duckdb
  data_dir: /srv/streampulse
analytics:
  reference_time: "2025-06-15"
  render_cache_ttl: 5s
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "duckdb" || cfg.Storage.DataDir != "/srv/streampulse" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if cfg.Analytics.RenderCacheTTL != 5*time.Second {
		t.Errorf("RenderCacheTTL = %v", cfg.Analytics.RenderCacheTTL)
	}

	ref, ok, err := cfg.Analytics.ParseReferenceTime()
	if err != nil || !ok {
		t.Fatalf("ParseReferenceTime: (%v, %v)", ok, err)
	}
	if !ref.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("reference time = %v", ref)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HTTP_PORT", "7001")
	t.Setenv("DATA_DIR", "/env/data")
	t.Setenv("LOG_LEVEL", "debug")
	// Unmapped variables must be ignored, not break the load.
	t.Setenv("HTTP_PROXY", "http://localhost:3128")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("Port = %d, want env override 7001", cfg.Server.Port)
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load accepted a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }, true},
		{"empty data dir", func(c *Config) { c.Storage.DataDir = "" }, true},
		{"empty model path", func(c *Config) { c.Model.Path = "" }, true},
		{"negative cache ttl", func(c *Config) { c.Analytics.RenderCacheTTL = -time.Second }, true},
		{"zero cache ttl disables caching", func(c *Config) { c.Analytics.RenderCacheTTL = 0 }, false},
		{"bad reference time", func(c *Config) { c.Analytics.ReferenceTime = "soon" }, true},
		{"rfc3339 reference time", func(c *Config) { c.Analytics.ReferenceTime = "2025-06-15T10:00:00Z" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8686}
	if got := c.Addr(); got != "127.0.0.1:8686" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"data_dir", "storage.data_dir"},
		{"MODEL_PATH", "model.path"},
		{"ANALYTICS_REFERENCE_TIME", "analytics.reference_time"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

// chdirTemp switches the working directory to a fresh temp dir for the
// duration of the test, so default-path config discovery finds nothing.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	})
	return dir
}
