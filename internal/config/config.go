package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the cloudstocks client.
type Config struct {
	API     API     `yaml:"api"`
	Session Session `yaml:"session"`
	Logging Logging `yaml:"logging"`
	History History `yaml:"history"`
	Export  Export  `yaml:"export"`
}

// API holds the remote CloudStocks endpoint settings.
type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"` // zero means no client-side timeout
}

// Session selects where the bearer token and user email are persisted.
type Session struct {
	Backend string `yaml:"backend"` // memory, file or sqlite
	Path    string `yaml:"path"`    // empty means a backend-specific file under Dir
	Dir     string `yaml:"dir"`
}

// StoragePath returns Path, or the default file for the backend under Dir:
// session.db for sqlite, session.json otherwise.
func (s Session) StoragePath() string {
	if s.Path != "" {
		return s.Path
	}
	name := "session.json"
	if strings.EqualFold(s.Backend, "sqlite") {
		name = "session.db"
	}
	return filepath.Join(s.Dir, name)
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// History holds the date window used for authenticated history queries
// until the user changes it.
type History struct {
	DefaultFrom string `yaml:"default_from"`
	DefaultTo   string `yaml:"default_to"`
}

// Export controls where exported history files are written.
type Export struct {
	Dir string `yaml:"dir"`
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

// DefaultBaseURL is the public CloudStocks API origin.
const DefaultBaseURL = "http://131.181.190.87:3000"

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	dir := filepath.Join(home, ".cloudstocks")
	return &Config{
		API: API{BaseURL: DefaultBaseURL},
		Session: Session{
			Backend: "file",
			Dir:     dir,
		},
		Logging: Logging{Level: "info", Format: "text"},
		History: History{
			DefaultFrom: "2019-11-06",
			DefaultTo:   "2020-03-24",
		},
		Export: Export{Dir: "."},
	}
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path on top of the
// defaults, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the defaults when path is
// empty or the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := Load(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	cfg := Default()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLOUDSTOCKS_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}

	if v := os.Getenv("CLOUDSTOCKS_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		} else if secs, err := strconv.Atoi(v); err == nil {
			cfg.API.Timeout = time.Duration(secs) * time.Second
		}
	}

	if v := os.Getenv("CLOUDSTOCKS_SESSION_BACKEND"); v != "" {
		cfg.Session.Backend = v
	}

	if v := os.Getenv("CLOUDSTOCKS_SESSION_PATH"); v != "" {
		cfg.Session.Path = v
	}

	if v := os.Getenv("CLOUDSTOCKS_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
