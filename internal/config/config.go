// Package config loads the builder client configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	State   StateConfig   `yaml:"state"`
	Display DisplayConfig `yaml:"display"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig points the client at a backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StateConfig controls where persisted client state lives.
type StateConfig struct {
	Dir string `yaml:"dir"`
	// TokenKey seals the session file when set. Prefer BUILDER_TOKEN_KEY.
	TokenKey string `yaml:"token_key,omitempty"`
}

// DisplayConfig controls terminal rendering.
type DisplayConfig struct {
	Theme    string `yaml:"theme"` // light, dark, system
	Locale   string `yaml:"locale"`
	Currency string `yaml:"currency"`
	PageSize int    `yaml:"page_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "30s",
		},
		State: StateConfig{
			Dir: defaultStateDir(),
		},
		Display: DisplayConfig{
			Theme:    "system",
			Locale:   "en-US",
			Currency: "USD",
			PageSize: 10,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".celerix-builder"
	}
	return filepath.Join(dir, "celerix-builder")
}

// DefaultPath is the config file location when none is given.
func DefaultPath() string {
	return filepath.Join(defaultStateDir(), "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, cfg.Validate()
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BUILDER_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("BUILDER_TIMEOUT"); v != "" {
		c.API.Timeout = v
	}
	if v := os.Getenv("BUILDER_STATE_DIR"); v != "" {
		c.State.Dir = v
	}
	if v := os.Getenv("BUILDER_TOKEN_KEY"); v != "" {
		c.State.TokenKey = v
	}
	if v := os.Getenv("BUILDER_THEME"); v != "" {
		c.Display.Theme = v
	}
	if v := os.Getenv("BUILDER_LOCALE"); v != "" {
		c.Display.Locale = v
	}
	if v := os.Getenv("BUILDER_CURRENCY"); v != "" {
		c.Display.Currency = v
	}
}

// GetTimeout returns the request timeout, falling back to 30s.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Display.Theme {
	case "light", "dark", "system":
	default:
		return fmt.Errorf("display.theme must be light, dark or system, got %q", c.Display.Theme)
	}
	if c.Display.PageSize <= 0 {
		c.Display.PageSize = 10
	}
	return nil
}
