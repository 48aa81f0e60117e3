package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parkingtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingOptionalFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, PlanFull, cfg.Plan)
	assert.Equal(t, DefaultReportPath, cfg.ReportPath)
	assert.Equal(t, DefaultTokenField, cfg.TokenField)
	assert.Equal(t, DefaultCollectionPath, cfg.CollectionPath)
	assert.Equal(t, "testuser123", cfg.Accounts.User.Username)
	assert.Equal(t, "admin123", cfg.Accounts.Admin.Username)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	assert.Error(t, err)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
base_url: http://parking.test:9000/
timeout: 5s
requests_per_second: 2.5
plan: simple
excel_path: report.xlsx
history_path: history.db
accounts:
  user:
    username: alice
    password: secret
  admin:
    username: root
    password: hunter2
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, "http://parking.test:9000", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, PlanSimple, cfg.Plan)
	assert.Equal(t, "report.xlsx", cfg.ExcelPath)
	assert.Equal(t, "history.db", cfg.HistoryPath)
	assert.Equal(t, "alice", cfg.Accounts.User.Username)
	assert.Equal(t, "hunter2", cfg.Accounts.Admin.Password)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, DefaultReportPath, cfg.ReportPath)
}

func TestLoad_ZeroTimeoutDisablesIt(t *testing.T) {
	cfg, err := Load(writeConfig(t, "timeout: 0s\n"), false)
	require.NoError(t, err)
	assert.Zero(t, cfg.Timeout)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	_, err := Load(writeConfig(t, "timeout: soon\n"), false)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"relative base url", func(c *Config) { c.BaseURL = "localhost:8000" }},
		{"ftp base url", func(c *Config) { c.BaseURL = "ftp://localhost" }},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }},
		{"unknown plan", func(c *Config) { c.Plan = "everything" }},
		{"empty token field", func(c *Config) { c.TokenField = "" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr))
		})
	}
}
