package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
forum:
  base_url: "https://forum.example.com/api"
  token: "secret"
storage:
  database_path: "./posts.db"
courses:
  - "j8rf9vx3kisg"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Forum.BaseURL != "https://forum.example.com/api" {
		t.Errorf("unexpected forum config: %+v", cfg.Forum)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "posts.db") {
		t.Errorf("expected ./ path relative to config dir, got %s", cfg.Storage.DatabasePath)
	}
	if len(cfg.Courses) != 1 || cfg.Courses[0] != "j8rf9vx3kisg" {
		t.Errorf("unexpected courses: %v", cfg.Courses)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	if cfg.Sync.Interval() != 120*time.Second {
		t.Errorf("sync interval default = %v, want 120s", cfg.Sync.Interval())
	}
	if cfg.Recommend.ReloadDelay() != 150*time.Second {
		t.Errorf("reload delay default = %v, want 150s", cfg.Recommend.ReloadDelay())
	}
	if cfg.Recommend.ScoreThreshold != 0.1 {
		t.Errorf("score threshold default = %v, want 0.1", cfg.Recommend.ScoreThreshold)
	}
	if cfg.Recommend.PrimaryWeight != 0.4 || cfg.Recommend.SecondaryWeight != 0.2 {
		t.Errorf("unexpected weight defaults: %+v", cfg.Recommend)
	}
	if cfg.Forum.Timeout() != 30*time.Second {
		t.Errorf("forum timeout default = %v, want 30s", cfg.Forum.Timeout())
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
