package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hay-kot/criterio"

	"github.com/colonyops/touchline/internal/core/styles"
)

// Validate checks that the configuration is usable. Every problem is
// reported as a criterio field error.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("api.base_url", c.API.BaseURL, absoluteURL),
		criterio.Run("api.timeout", c.API.Timeout, positiveDuration),
		criterio.Run("display.page_size", c.Display.PageSize, positiveInt),
		criterio.Run("display.time_zone", c.Display.TimeZone, knownZone),
		criterio.Run("tui.theme", c.TUI.Theme, knownTheme),
		criterio.Run("server.page_size", c.Server.PageSize, positiveInt),
		criterio.Run("database.max_open_conns", c.Database.MaxOpenConns, nonNegative),
		criterio.Run("database.max_idle_conns", c.Database.MaxIdleConns, nonNegative),
		criterio.Run("database.busy_timeout", c.Database.BusyTimeout, nonNegative),
		c.validateSubjects(),
	)
}

// ValidateDeep runs Validate and then checks the filesystem: the config file
// and the token file, when set, must be readable regular files.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		criterio.Run("config_file", configPath, fileOrNotExist),
		criterio.Run("auth.token_file", c.Auth.TokenFile, fileOrNotExist),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func (c *Config) validateSubjects() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Subjects.Allow {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("subjects.allow[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func absoluteURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

func positiveDuration(d time.Duration) error {
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}

func positiveInt(n int) error {
	if n < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

func nonNegative(n int) error {
	if n < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func knownZone(name string) error {
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown time zone %q", name)
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", name, styles.ThemeNames())
	}
	return nil
}

func fileOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return errors.New("exists but is not a directory")
	}
	return nil
}
