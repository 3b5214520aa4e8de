package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Listen != ":8080" {
		t.Errorf("expected :8080, got %s", cfg.Listen)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("expected 5m TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 100 {
		t.Errorf("expected 100 cache entries, got %d", cfg.Cache.MaxEntries)
	}
	if cfg.RateLimits.GlobalPerMinute != 10 || cfg.RateLimits.GlobalPerHour != 100 || cfg.RateLimits.PerUserPerMinute != 3 {
		t.Errorf("unexpected default ceilings: %+v", cfg.RateLimits)
	}
	if !cfg.Upstream.Enabled {
		t.Error("upstream should default to enabled")
	}
	if cfg.Upstream.ModelID != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("unexpected default model: %s", cfg.Upstream.ModelID)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_DB_DIR", "/var/lib/signbridge")

	content := `
listen: ":9090"
log_level: debug
upstream:
  enabled: false
  region: us-east-1
  timeout: 30s
rate_limits:
  global_per_minute: 20
  per_user_per_minute: 5
cache:
  ttl: 10m
history:
  db_path: ${TEST_DB_DIR}/history.db
  retention_days: 7
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Listen)
	}
	if cfg.Upstream.Enabled {
		t.Error("expected upstream disabled")
	}
	if cfg.Upstream.Region != "us-east-1" {
		t.Errorf("expected us-east-1, got %s", cfg.Upstream.Region)
	}
	if cfg.Upstream.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Upstream.Timeout)
	}
	if cfg.RateLimits.GlobalPerMinute != 20 {
		t.Errorf("expected 20 per minute, got %d", cfg.RateLimits.GlobalPerMinute)
	}
	if cfg.RateLimits.GlobalPerHour != 100 {
		t.Errorf("unset ceiling should keep default 100, got %d", cfg.RateLimits.GlobalPerHour)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("expected 10m TTL, got %v", cfg.Cache.TTL)
	}
	if cfg.History.DBPath != "/var/lib/signbridge/history.db" {
		t.Errorf("env var not expanded: got %s", cfg.History.DBPath)
	}
	if cfg.History.RetentionDays != 7 {
		t.Errorf("expected 7 retention days, got %d", cfg.History.RetentionDays)
	}
	if cfg.Upstream.ModelID != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("unset model should keep default, got %s", cfg.Upstream.ModelID)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	content := `
rate_limits:
  global_per_minute: 0
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error for zero ceiling")
	}
	if !strings.Contains(err.Error(), "global_per_minute") {
		t.Errorf("error should name the bad field: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero per-user ceiling", func(c *Config) { c.RateLimits.PerUserPerMinute = 0 }, "per_user_per_minute"},
		{"negative hour ceiling", func(c *Config) { c.RateLimits.GlobalPerHour = -1 }, "global_per_hour"},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"zero cache capacity", func(c *Config) { c.Cache.MaxEntries = 0 }, "max_entries"},
		{"zero max tokens", func(c *Config) { c.Upstream.MaxTokens = 0 }, "max_tokens"},
		{"zero upstream timeout", func(c *Config) { c.Upstream.Timeout = 0 }, "upstream.timeout"},
		{"negative retention", func(c *Config) { c.History.RetentionDays = -1 }, "retention_days"},
		{"zero upload cap", func(c *Config) { c.Intake.MaxUploadMB = 0 }, "max_upload_mb"},
		{"zero workers", func(c *Config) { c.Intake.ReprocessWorkers = 0 }, "reprocess_workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error should mention %s: %v", tt.field, err)
			}
		})
	}
}
