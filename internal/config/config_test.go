package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloudstocks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CLOUDSTOCKS_API_URL",
		"CLOUDSTOCKS_API_TIMEOUT",
		"CLOUDSTOCKS_SESSION_BACKEND",
		"CLOUDSTOCKS_SESSION_PATH",
		"CLOUDSTOCKS_EXPORT_DIR",
		"LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
api:
  base_url: "http://localhost:3000"
  timeout: 5s
session:
  backend: "sqlite"
  path: "/tmp/cloudstocks/session.db"
logging:
  level: "debug"
  format: "json"
history:
  default_from: "2020-01-01"
  default_to: "2020-02-01"
export:
  dir: "/tmp/exports"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- API --
	if cfg.API.BaseURL != "http://localhost:3000" {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, "http://localhost:3000")
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("API.Timeout = %v, want %v", cfg.API.Timeout, 5*time.Second)
	}

	// -- Session --
	if cfg.Session.Backend != "sqlite" {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, "sqlite")
	}
	if cfg.Session.Path != "/tmp/cloudstocks/session.db" {
		t.Errorf("Session.Path = %q, want %q", cfg.Session.Path, "/tmp/cloudstocks/session.db")
	}

	// -- Logging --
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// -- History --
	if cfg.History.DefaultFrom != "2020-01-01" {
		t.Errorf("History.DefaultFrom = %q, want %q", cfg.History.DefaultFrom, "2020-01-01")
	}
	if cfg.History.DefaultTo != "2020-02-01" {
		t.Errorf("History.DefaultTo = %q, want %q", cfg.History.DefaultTo, "2020-02-01")
	}

	if cfg.Export.Dir != "/tmp/exports" {
		t.Errorf("Export.Dir = %q, want %q", cfg.Export.Dir, "/tmp/exports")
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
logging:
  level: "warn"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.Session.Backend != "file" {
		t.Errorf("Session.Backend = %q, want %q", cfg.Session.Backend, "file")
	}
	if cfg.History.DefaultFrom != "2019-11-06" || cfg.History.DefaultTo != "2020-03-24" {
		t.Errorf("History = %+v, want 2019-11-06..2020-03-24", cfg.History)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
api:
  base_url: "http://yaml-host:3000"
session:
  backend: "file"
  path: "/yaml/session.json"
`)

	t.Setenv("CLOUDSTOCKS_API_URL", "http://env-host:3000")
	t.Setenv("CLOUDSTOCKS_SESSION_BACKEND", "memory")
	t.Setenv("CLOUDSTOCKS_API_TIMEOUT", "30")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.API.BaseURL != "http://env-host:3000" {
		t.Errorf("API.BaseURL = %q, want %q (env override)", cfg.API.BaseURL, "http://env-host:3000")
	}
	if cfg.Session.Backend != "memory" {
		t.Errorf("Session.Backend = %q, want %q (env override)", cfg.Session.Backend, "memory")
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want %v (env override)", cfg.API.Timeout, 30*time.Second)
	}
	// path should remain from YAML since no env override was set.
	if cfg.Session.Path != "/yaml/session.json" {
		t.Errorf("Session.Path = %q, want %q (from YAML)", cfg.Session.Path, "/yaml/session.json")
	}
}

func TestSessionStoragePath(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	if got := cfg.Session.StoragePath(); filepath.Base(got) != "session.json" {
		t.Errorf("file backend StoragePath() = %q, want session.json", got)
	}

	cfg.Session.Backend = "sqlite"
	got := cfg.Session.StoragePath()
	if filepath.Base(got) != "session.db" {
		t.Errorf("sqlite backend StoragePath() = %q, want session.db", got)
	}
	if filepath.Dir(got) != cfg.Session.Dir {
		t.Errorf("StoragePath() dir = %q, want %q", filepath.Dir(got), cfg.Session.Dir)
	}

	cfg.Session.Path = "/explicit/s.db"
	if got := cfg.Session.StoragePath(); got != "/explicit/s.db" {
		t.Errorf("StoragePath() = %q, want the configured path", got)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() returned error: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
}

func TestLoadOrDefaultBadYAML(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "api: [not, a, map")
	if _, err := LoadOrDefault(path); err == nil {
		t.Fatal("LoadOrDefault() should fail on malformed YAML")
	}
}
