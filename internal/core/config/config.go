// Package config handles configuration loading and validation for touchline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/touchline/internal/core/styles"
)

// Config holds the application configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Display  DisplayConfig  `yaml:"display"`
	TUI      TUIConfig      `yaml:"tui"`
	Auth     AuthConfig     `yaml:"auth"`
	Subjects SubjectsConfig `yaml:"subjects"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// APIConfig points at the remote comment API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DisplayConfig controls how comments are rendered.
type DisplayConfig struct {
	TimeLayout string `yaml:"time_layout"`
	TimeZone   string `yaml:"time_zone"`
	// PageSize is the server page size. Comments past it on a page were
	// appended locally and get marked as landing on the last page.
	PageSize int `yaml:"page_size"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `yaml:"theme"`
}

// AuthConfig says where the bearer credential comes from. The environment
// variable wins over the file.
type AuthConfig struct {
	TokenFile string `yaml:"token_file"`
	TokenEnv  string `yaml:"token_env"`
}

// SubjectsConfig restricts which subjects may be opened.
type SubjectsConfig struct {
	// Allow holds glob patterns matched against "category/keyword". Empty
	// allows everything.
	Allow []string `yaml:"allow"`
}

// ServerConfig configures the development comment server.
type ServerConfig struct {
	Addr     string        `yaml:"addr"`
	PageSize int           `yaml:"page_size"`
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8787/api",
			Timeout: 10 * time.Second,
		},
		Display: DisplayConfig{
			TimeLayout: "2006-01-02 15:04",
			PageSize:   10,
		},
		TUI: TUIConfig{
			Theme: styles.DefaultTheme,
		},
		Auth: AuthConfig{
			TokenEnv: "TOUCHLINE_TOKEN",
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:8787",
			PageSize: 10,
			Secret:   "touchline-dev-secret",
			TokenTTL: 24 * time.Hour,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 2,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Display.TimeLayout == "" {
		c.Display.TimeLayout = defaults.Display.TimeLayout
	}
	if c.Display.PageSize == 0 {
		c.Display.PageSize = defaults.Display.PageSize
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.PageSize == 0 {
		c.Server.PageSize = defaults.Server.PageSize
	}
	if c.Server.Secret == "" {
		c.Server.Secret = defaults.Server.Secret
	}
	if c.Server.TokenTTL == 0 {
		c.Server.TokenTTL = defaults.Server.TokenTTL
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Auth.TokenFile == "" && c.DataDir != "" {
		c.Auth.TokenFile = filepath.Join(c.DataDir, "token")
	}
}

// SubjectAllowed reports whether "category/keyword" matches the allow list.
// Patterns are validated on load, so match errors are treated as no match.
func (c *Config) SubjectAllowed(category, keyword string) bool {
	if len(c.Subjects.Allow) == 0 {
		return true
	}
	name := category + "/" + keyword
	for _, pattern := range c.Subjects.Allow {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
