// Package config loads linksaver's configuration: an optional YAML file,
// then environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	Port    string `yaml:"port"`
	DataDir string `yaml:"dataDir"`

	// Storage
	Backend      string `yaml:"backend"` // "", "sqlite" or "json"
	DBPath       string `yaml:"dbPath"`
	JSONPath     string `yaml:"jsonPath"`
	SettingsPath string `yaml:"settingsPath"`
	SnapshotPath string `yaml:"snapshotPath"` // file written by the upload endpoint

	// Sync
	SyncEndpoint string `yaml:"syncEndpoint"`
	ExtensionID  string `yaml:"extensionId"`

	// Export
	EscapeHTML bool `yaml:"escapeHtml"`

	// Logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"` // text or json

	// ConfigPath is the file the configuration was read from, if any.
	ConfigPath string `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Port:         "3000",
		SyncEndpoint: "http://localhost:3000/api/uploadBookmarks",
		ExtensionID:  "IDepieclpffnjdhdniiemnjbncngdeicab",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// DefaultConfigFilePath returns the default config path:
// ~/.config/linksaver/config.yaml
func DefaultConfigFilePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "linksaver", "config.yaml"), nil
}

// Load reads path (a missing file is fine), applies LINKSAVER_* environment
// overrides and fills in derived paths. An empty path uses the default
// location.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultConfigFilePath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg.applyEnv()
	if err := cfg.fillPaths(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ConfigPath = path
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("LINKSAVER_PORT", c.Port)
	c.DataDir = envOr("LINKSAVER_DATA_DIR", c.DataDir)
	c.Backend = envOr("LINKSAVER_BACKEND", c.Backend)
	c.DBPath = envOr("LINKSAVER_DB_PATH", c.DBPath)
	c.JSONPath = envOr("LINKSAVER_JSON_PATH", c.JSONPath)
	c.SettingsPath = envOr("LINKSAVER_SETTINGS_PATH", c.SettingsPath)
	c.SnapshotPath = envOr("LINKSAVER_SNAPSHOT_PATH", c.SnapshotPath)
	c.SyncEndpoint = envOr("LINKSAVER_SYNC_ENDPOINT", c.SyncEndpoint)
	c.ExtensionID = envOr("LINKSAVER_EXTENSION_ID", c.ExtensionID)
	c.EscapeHTML = envBool("LINKSAVER_ESCAPE_HTML", c.EscapeHTML)
	c.LogLevel = envOr("LINKSAVER_LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOr("LINKSAVER_LOG_FORMAT", c.LogFormat)

	// PORT is honoured as a fallback for hosted environments.
	if port := envInt("PORT", 0); port > 0 && os.Getenv("LINKSAVER_PORT") == "" {
		c.Port = strconv.Itoa(port)
	}
}

// fillPaths derives unset file locations from the data directory.
func (c *Config) fillPaths() error {
	if c.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.DataDir = filepath.Join(homeDir, ".config", "linksaver")
	}

	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "bookmarks.db")
	}
	if c.JSONPath == "" {
		c.JSONPath = filepath.Join(c.DataDir, "bookmarks.json")
	}
	if c.SettingsPath == "" {
		c.SettingsPath = filepath.Join(c.DataDir, "settings.json")
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = filepath.Join(c.DataDir, "bookmarks-data.json")
	}
	return nil
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	switch c.Backend {
	case "", "sqlite", "json":
	default:
		return fmt.Errorf("invalid backend %q: want sqlite or json", c.Backend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q: want text or json", c.LogFormat)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.SyncEndpoint == "" {
		return fmt.Errorf("sync endpoint is required")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Save writes the configuration as YAML, creating the directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
