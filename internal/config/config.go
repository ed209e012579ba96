// Package config handles application configuration loading and saving.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cardbinder/cardbinder/internal/auth"
	"github.com/cardbinder/cardbinder/internal/scanner"
	"github.com/cardbinder/cardbinder/internal/storage/remote"
	"github.com/cardbinder/cardbinder/internal/vision"
)

// Config represents the application configuration.
type Config struct {
	// Local database settings
	Storage StorageConfig `toml:"storage"`

	// Hosted store settings (used for signed-in sessions)
	Remote remote.Config `toml:"remote"`

	// Auth service settings
	Auth auth.Config `toml:"auth"`

	// Card photo identification settings
	Vision vision.Config `toml:"vision"`

	// Drop-directory scanner settings
	Scanner scanner.Config `toml:"scanner"`

	// HTTP API settings
	API APIConfig `toml:"api"`

	// Application settings
	App AppConfig `toml:"app"`
}

// StorageConfig contains local SQLite settings.
type StorageConfig struct {
	Path        string `toml:"path"`         // Database file path ("" = default location)
	JournalMode string `toml:"journal_mode"` // SQLite journal mode
	BusyTimeout string `toml:"busy_timeout"` // Lock wait duration (e.g., "5s")
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled        bool     `toml:"enabled"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:        "",
			JournalMode: "WAL",
			BusyTimeout: "5s",
		},
		Remote: remote.Config{
			DSN:      "",
			PoolSize: 4,
		},
		Auth: auth.Config{
			BaseURL: "",
			AnonKey: "",
		},
		Vision:  *vision.DefaultConfig(),
		Scanner: *scanner.DefaultConfig(),
		API: APIConfig{
			Enabled:        true,
			Host:           "127.0.0.1",
			Port:           8585,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the application configuration directory, creating it if
// needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".cardbinder")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return configDir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from the given path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo saves the configuration to the given path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Storage.BusyTimeout != "" {
		if _, err := time.ParseDuration(c.Storage.BusyTimeout); err != nil {
			return fmt.Errorf("invalid busy timeout %q: %w", c.Storage.BusyTimeout, err)
		}
	}

	if c.Scanner.SettleDelay != "" {
		if _, err := time.ParseDuration(c.Scanner.SettleDelay); err != nil {
			return fmt.Errorf("invalid settle delay %q: %w", c.Scanner.SettleDelay, err)
		}
	}

	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", c.API.Port)
	}

	if c.Remote.PoolSize < 0 {
		return fmt.Errorf("pool size cannot be negative: %d", c.Remote.PoolSize)
	}

	if c.Auth.BaseURL != "" && c.Auth.AnonKey == "" {
		return fmt.Errorf("auth base URL set without anon key")
	}

	return nil
}

// GetBusyTimeout returns the SQLite busy timeout as a duration.
func (c *Config) GetBusyTimeout() (time.Duration, error) {
	if c.Storage.BusyTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(c.Storage.BusyTimeout)
}

// DatabasePath returns the configured database path, or the default
// location under the config directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "collection.db"), nil
}
