package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all SignBridge configuration.
type Config struct {
	Listen     string          `yaml:"listen"`
	LogLevel   string          `yaml:"log_level"`
	Upstream   UpstreamConfig  `yaml:"upstream"`
	RateLimits RateLimitConfig `yaml:"rate_limits"`
	Cache      CacheConfig     `yaml:"cache"`
	History    HistoryConfig   `yaml:"history"`
	Storage    StorageConfig   `yaml:"storage"`
	Intake     IntakeConfig    `yaml:"intake"`
}

// UpstreamConfig controls the Bedrock-backed feedback generator. With
// Enabled false the service still answers every request, serving canned
// fallback messages.
type UpstreamConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Region    string        `yaml:"region"`
	ModelID   string        `yaml:"model_id"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// RateLimitConfig sets the three quota ceilings. Each must be at least 1.
type RateLimitConfig struct {
	GlobalPerMinute  int `yaml:"global_per_minute"`
	GlobalPerHour    int `yaml:"global_per_hour"`
	PerUserPerMinute int `yaml:"per_user_per_minute"`
}

// CacheConfig controls the feedback response cache.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// HistoryConfig controls the on-disk request history.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// StorageConfig locates the sign video and landmark archive.
type StorageConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// IntakeConfig controls video uploads and the landmark extractor sidecar.
type IntakeConfig struct {
	ExtractorURL     string        `yaml:"extractor_url"`
	ExtractorTimeout time.Duration `yaml:"extractor_timeout"`
	MaxUploadMB      int           `yaml:"max_upload_mb"`
	ReprocessWorkers int           `yaml:"reprocess_workers"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		LogLevel: "info",
		Upstream: UpstreamConfig{
			Enabled:   true,
			Region:    "us-west-2",
			ModelID:   "anthropic.claude-3-haiku-20240307-v1:0",
			MaxTokens: 100,
			Timeout:   15 * time.Second,
		},
		RateLimits: RateLimitConfig{
			GlobalPerMinute:  10,
			GlobalPerHour:    100,
			PerUserPerMinute: 3,
		},
		Cache: CacheConfig{
			TTL:        5 * time.Minute,
			MaxEntries: 100,
		},
		History: HistoryConfig{
			Enabled:       true,
			DBPath:        "signbridge.db",
			RetentionDays: 30,
		},
		Storage: StorageConfig{
			BaseDir: "static",
		},
		Intake: IntakeConfig{
			ExtractorURL:     "http://127.0.0.1:8091",
			ExtractorTimeout: 2 * time.Minute,
			MaxUploadMB:      100,
			ReprocessWorkers: 4,
		},
	}
}

// Load reads a YAML config file, expands environment variables, and
// validates the result. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.RateLimits.GlobalPerMinute < 1 {
		return fmt.Errorf("rate_limits.global_per_minute must be at least 1, got %d", c.RateLimits.GlobalPerMinute)
	}
	if c.RateLimits.GlobalPerHour < 1 {
		return fmt.Errorf("rate_limits.global_per_hour must be at least 1, got %d", c.RateLimits.GlobalPerHour)
	}
	if c.RateLimits.PerUserPerMinute < 1 {
		return fmt.Errorf("rate_limits.per_user_per_minute must be at least 1, got %d", c.RateLimits.PerUserPerMinute)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1, got %d", c.Cache.MaxEntries)
	}
	if c.Upstream.MaxTokens < 1 {
		return fmt.Errorf("upstream.max_tokens must be at least 1, got %d", c.Upstream.MaxTokens)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must not be negative, got %d", c.History.RetentionDays)
	}
	if c.Intake.MaxUploadMB < 1 {
		return fmt.Errorf("intake.max_upload_mb must be at least 1, got %d", c.Intake.MaxUploadMB)
	}
	if c.Intake.ReprocessWorkers < 1 {
		return fmt.Errorf("intake.reprocess_workers must be at least 1, got %d", c.Intake.ReprocessWorkers)
	}
	return nil
}
