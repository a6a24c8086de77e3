package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("WHITESPACE_CONFIG_FILE", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("server.addr: got=%q", cfg.Server.Addr)
	}
	if cfg.Whitespace.Clustering != ClusteringModularity || cfg.Whitespace.Layout != LayoutNeighbor {
		t.Fatalf("strategies: got=%q/%q", cfg.Whitespace.Clustering, cfg.Whitespace.Layout)
	}
	if cfg.Whitespace.MaxGroups != 5 || cfg.Whitespace.Seed != 42 {
		t.Fatalf("whitespace defaults: %+v", cfg.Whitespace)
	}
	if cfg.Whitespace.PersistTimeout != 2*time.Minute {
		t.Fatalf("persist_timeout: got=%v", cfg.Whitespace.PersistTimeout)
	}
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "whitespace.yaml")
	yaml := "whitespace:\n  clustering: threshold\n  max_groups: 3\nredis:\n  addr: file:6379\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("WHITESPACE_CONFIG_FILE", path)
	t.Setenv("REDIS_ADDR", "env:6379")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Whitespace.Clustering != ClusteringThreshold || cfg.Whitespace.MaxGroups != 3 {
		t.Fatalf("file values not applied: %+v", cfg.Whitespace)
	}
	if cfg.Redis.Addr != "env:6379" {
		t.Fatalf("env should win over file: got=%q", cfg.Redis.Addr)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("PORT override: got=%q", cfg.Server.Addr)
	}
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	t.Setenv("WHITESPACE_CONFIG_FILE", "")
	t.Chdir(t.TempDir())
	t.Setenv("WHITESPACE_WHITESPACE_LAYOUT", "spiral")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("WHITESPACE_CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}
