// Package config provides configuration loading and structs for the parqr service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Forum     ForumConfig     `yaml:"forum"`
	Storage   StorageConfig   `yaml:"storage"`
	Sync      SyncConfig      `yaml:"sync"`
	Recommend RecommendConfig `yaml:"recommend"`
	Courses   []string        `yaml:"courses"`
}

// ForumConfig holds settings for the external forum API.
type ForumConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-request timeout for forum API calls.
func (f *ForumConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// StorageConfig holds paths for the post database and the model store.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	ModelStorePath string `yaml:"model_store_path"`
}

// SyncConfig holds sync scheduling settings.
type SyncConfig struct {
	IntervalSeconds    int `yaml:"interval_seconds"`
	PassTimeoutSeconds int `yaml:"pass_timeout_seconds"`
}

// Interval returns the delay between scheduled sync passes for a course.
func (s *SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// PassTimeout returns the upper bound on one sync pass, including all
// external fetches.
func (s *SyncConfig) PassTimeout() time.Duration {
	return time.Duration(s.PassTimeoutSeconds) * time.Second
}

// RecommendConfig holds cache and scoring settings.
type RecommendConfig struct {
	ReloadDelaySeconds int     `yaml:"reload_delay_seconds"`
	ScoreThreshold     float64 `yaml:"score_threshold"`
	PrimaryWeight      float64 `yaml:"primary_weight"`
	SecondaryWeight    float64 `yaml:"secondary_weight"`
	DefaultLimit       int     `yaml:"default_limit"`
	MaxLimit           int     `yaml:"max_limit"`
}

// ReloadDelay returns the model cache TTL.
func (r *RecommendConfig) ReloadDelay() time.Duration {
	return time.Duration(r.ReloadDelaySeconds) * time.Second
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.ModelStorePath = expandPath(cfg.Storage.ModelStorePath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
