// Package config loads stride's settings from a YAML file, .env files and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backends
const (
	BackendSQLite    = "sqlite"
	BackendPostgREST = "postgrest"
)

const appName = "stride"

// Config is the full set of settings
type Config struct {
	Backend   string          `yaml:"backend"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	PostgREST PostgRESTConfig `yaml:"postgrest"`
	Log       LogConfig       `yaml:"log"`
}

// SQLiteConfig configures the local database backend
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgRESTConfig configures the hosted backend
type PostgRESTConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Schema  string        `yaml:"schema"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig configures the log file
type LogConfig struct {
	File  string `yaml:"file"`
	Level string `yaml:"level"`
}

// Default returns the settings used when nothing is configured
func Default() (*Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Backend: BackendSQLite,
		SQLite:  SQLiteConfig{Path: filepath.Join(dataDir, appName+".db")},
		PostgREST: PostgRESTConfig{
			Schema:  "public",
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{
			File:  filepath.Join(dataDir, appName+".log"),
			Level: "info",
		},
	}, nil
}

// DataDir is the XDG data directory for stride
func DataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName), nil
}

// Path returns the config file location: STRIDE_CONFIG if set, otherwise
// config.yaml under the user config directory
func Path() (string, error) {
	if custom := os.Getenv("STRIDE_CONFIG"); custom != "" {
		return custom, nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", homeErr)
		}
		return filepath.Join(home, "."+appName, "config.yaml"), nil
	}
	return filepath.Join(configDir, appName, "config.yaml"), nil
}

// LoadDotEnv loads .env.local and .env from the working directory when
// they exist. Variables already set in the environment win.
func LoadDotEnv() error {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file at path, or at Path() when path is empty. A
// missing file yields the defaults. Environment overrides are applied
// last and the result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = Path(); err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file (%s): %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (%s): %w", path, err)
		}
	}

	cfg.applyEnv()

	cfg.SQLite.Path = expandHomeDir(cfg.SQLite.Path)
	cfg.Log.File = expandHomeDir(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STRIDE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		c.PostgREST.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		c.PostgREST.APIKey = v
	}
}

// Validate checks that the selected backend is fully configured
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return errors.New("config: sqlite.path is required")
		}
	case BackendPostgREST:
		if c.PostgREST.URL == "" {
			return errors.New("config: postgrest.url (or SUPABASE_URL) is required")
		}
		if c.PostgREST.APIKey == "" {
			return errors.New("config: postgrest.api_key (or SUPABASE_ANON_KEY) is required")
		}
		if c.PostgREST.Timeout <= 0 {
			return fmt.Errorf("config: invalid postgrest.timeout %s", c.PostgREST.Timeout)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	return nil
}

// expandHomeDir expands a leading ~/ to the home directory
func expandHomeDir(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
