// Package config loads guardian's configuration from a YAML file, an optional
// .env file and environment overrides. The resolved values are passed
// explicitly to the components that need them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all guardian configuration.
type Config struct {
	Service ServiceConfig `yaml:"service" json:"service"`
	UI      UIConfig      `yaml:"ui" json:"ui"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServiceConfig configures the analysis service client.
type ServiceConfig struct {
	// Base address of the service. Empty falls back to the local
	// development address.
	BaseURL string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`

	// Client-side timeout. Empty means none; the transport's own failure is
	// then the only way a stuck request ends.
	Timeout string `yaml:"timeout" json:"timeout"`

	// Outbound requests per second, 0 = unlimited.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit" validate:"gte=0"`
}

// UIConfig configures the presentation layer.
type UIConfig struct {
	Skin string `yaml:"skin" json:"skin" validate:"oneof=integrity guardian"`

	// Forces the dark palette; otherwise the terminal background decides.
	DarkMode bool `yaml:"dark_mode" json:"dark_mode"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Skin: "integrity",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/guardian/config.yaml (or the
// platform equivalent), falling back to the working directory.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".guardian", "config.yaml")
	}
	return filepath.Join(dir, "guardian", "config.yaml")
}

// Load loads configuration from a YAML file. A missing file yields defaults.
// Variables from a .env file in the working directory are loaded first and
// never override variables that are already set.
//
// Load does not validate; callers apply their own overrides and then call
// Validate.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// Defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Service URL (VITE_BACKEND_URL lets a frontend .env be reused as is)
	if url := os.Getenv("GUARDIAN_BACKEND_URL"); url != "" {
		c.Service.BaseURL = url
	} else if url := os.Getenv("VITE_BACKEND_URL"); url != "" {
		c.Service.BaseURL = url
	}
	if timeout := os.Getenv("GUARDIAN_TIMEOUT"); timeout != "" {
		c.Service.Timeout = timeout
	}

	if skin := os.Getenv("GUARDIAN_SKIN"); skin != "" {
		c.UI.Skin = skin
	}
	if dark := os.Getenv("GUARDIAN_DARK_MODE"); dark != "" {
		if v, err := strconv.ParseBool(dark); err == nil {
			c.UI.DarkMode = v
		}
	}

	if level := os.Getenv("GUARDIAN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("GUARDIAN_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
}

// GetTimeout returns the client timeout; zero means none.
func (c *Config) GetTimeout() time.Duration {
	if c.Service.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Service.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}
