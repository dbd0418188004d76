package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load(filepath.Join(dataDir, "nope.yaml"), dataDir)
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, defaults.API, cfg.API)
	assert.Equal(t, 10, cfg.Display.PageSize)
	assert.Equal(t, "TOUCHLINE_TOKEN", cfg.Auth.TokenEnv)
	assert.Equal(t, filepath.Join(dataDir, "token"), cfg.Auth.TokenFile)
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://example.com/api
  timeout: 3s
display:
  time_zone: Asia/Seoul
subjects:
  allow:
    - "players/*"
`)

	cfg, err := Load(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "Asia/Seoul", cfg.Display.TimeZone)
	assert.Equal(t, DefaultConfig().Display.TimeLayout, cfg.Display.TimeLayout, "unset layout falls back to default")
	assert.Equal(t, []string{"players/*"}, cfg.Subjects.Allow)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "api: [")

	_, err := Load(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{
			name:   "relative base url",
			mutate: func(c *Config) { c.API.BaseURL = "/api" },
			field:  "api.base_url",
		},
		{
			name:   "non-http scheme",
			mutate: func(c *Config) { c.API.BaseURL = "ftp://example.com" },
			field:  "api.base_url",
		},
		{
			name:   "negative timeout",
			mutate: func(c *Config) { c.API.Timeout = -time.Second },
			field:  "api.timeout",
		},
		{
			name:   "unknown theme",
			mutate: func(c *Config) { c.TUI.Theme = "neon" },
			field:  "tui.theme",
		},
		{
			name:   "unknown time zone",
			mutate: func(c *Config) { c.Display.TimeZone = "Mars/Olympus" },
			field:  "display.time_zone",
		},
		{
			name:   "bad glob",
			mutate: func(c *Config) { c.Subjects.Allow = []string{"players/[abc"} },
			field:  "subjects.allow[0]",
		},
		{
			name:   "zero server page size",
			mutate: func(c *Config) { c.Server.PageSize = 0 },
			field:  "server.page_size",
		},
		{
			name:   "empty data dir",
			mutate: func(c *Config) { c.DataDir = "" },
			field:  "data_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DataDir = t.TempDir()
			tt.mutate(&cfg)

			err := cfg.Validate()

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, tt.field, fieldErrs[0].Field)
		})
	}
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	assert.NoError(t, cfg.Validate())
}

func TestValidateDeep_TokenFileIsDirectory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Auth.TokenFile = t.TempDir()

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "auth.token_file", fieldErrs[0].Field)
}

func TestSubjectAllowed(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.SubjectAllowed("players", "anyone"), "empty allow list allows everything")

	cfg.Subjects.Allow = []string{"players/*", "teams/Tottenham*"}

	tests := []struct {
		category, keyword string
		want              bool
	}{
		{"players", "Heung-Min Son", true},
		{"teams", "Tottenham Hotspur", true},
		{"teams", "Arsenal", false},
		{"leagues", "EPL", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.SubjectAllowed(tt.category, tt.keyword), "%s/%s", tt.category, tt.keyword)
	}
}
