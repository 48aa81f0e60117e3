package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"parking_api_testing/internal/model"
)

const (
	DefaultPath           = "parkingtest.yaml"
	DefaultBaseURL        = "http://localhost:8000"
	DefaultReportPath     = "endpoint_test_results.txt"
	DefaultCollectionPath = "endpoint-tests/00-MASTER-ALL-TESTS.http"
	DefaultTokenField     = "session_token"
	DefaultTimeout        = 30 * time.Second

	PlanFull   = "full"
	PlanSimple = "simple"
)

// fileConfig mirrors the YAML layout; timeout stays a string until parsed.
type fileConfig struct {
	BaseURL           string   `yaml:"base_url"`
	Timeout           string   `yaml:"timeout"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	Plan              string   `yaml:"plan"`
	CasesPath         string   `yaml:"cases_path"`
	CasesSheet        string   `yaml:"cases_sheet"`
	HeaderRow         int      `yaml:"header_row"`
	ReportPath        string   `yaml:"report_path"`
	ExcelPath         string   `yaml:"excel_path"`
	HistoryPath       string   `yaml:"history_path"`
	TokenField        string   `yaml:"token_field"`
	CollectionPath    string   `yaml:"collection_path"`
	Accounts          Accounts `yaml:"accounts"`
	Logging           Logging  `yaml:"logging"`
}

type Accounts struct {
	User  model.Credentials `yaml:"user"`
	Admin model.Credentials `yaml:"admin"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	BaseURL           string
	Timeout           time.Duration // zero disables the client timeout
	RequestsPerSecond float64       // zero disables pacing
	Plan              string
	CasesPath         string
	CasesSheet        string
	HeaderRow         int
	ReportPath        string
	ExcelPath         string
	HistoryPath       string
	TokenField        string
	CollectionPath    string
	Accounts          Accounts
	Logging           Logging
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{Timeout: DefaultTimeout}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path. A missing file is only tolerated when
// optional is set, in which case the defaults are returned.
func Load(path string, optional bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to stat config %q: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config from %q: %w", path, err)
	}

	var fc fileConfig
	if err := k.UnmarshalWithConf("", &fc, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse config from %q: %w", path, err)
	}

	timeout := DefaultTimeout
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return nil, NewConfigError(fmt.Sprintf("invalid timeout %q: %v", fc.Timeout, err))
		}
		timeout = d
	}

	cfg := &Config{
		BaseURL:           fc.BaseURL,
		Timeout:           timeout,
		RequestsPerSecond: fc.RequestsPerSecond,
		Plan:              fc.Plan,
		CasesPath:         fc.CasesPath,
		CasesSheet:        fc.CasesSheet,
		HeaderRow:         fc.HeaderRow,
		ReportPath:        fc.ReportPath,
		ExcelPath:         fc.ExcelPath,
		HistoryPath:       fc.HistoryPath,
		TokenField:        fc.TokenField,
		CollectionPath:    fc.CollectionPath,
		Accounts:          fc.Accounts,
		Logging:           fc.Logging,
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed for %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Plan == "" {
		c.Plan = PlanFull
	}
	if c.CasesSheet == "" {
		c.CasesSheet = "Sheet1"
	}
	if c.HeaderRow == 0 {
		c.HeaderRow = 1
	}
	if c.ReportPath == "" {
		c.ReportPath = DefaultReportPath
	}
	if c.TokenField == "" {
		c.TokenField = DefaultTokenField
	}
	if c.CollectionPath == "" {
		c.CollectionPath = DefaultCollectionPath
	}
	if c.Accounts.User.Username == "" {
		c.Accounts.User = model.Credentials{Username: "testuser123", Password: "password123", Name: "Test User"}
	}
	if c.Accounts.Admin.Username == "" {
		c.Accounts.Admin = model.Credentials{Username: "admin123", Password: "admin123", Name: "Admin User"}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewConfigError(fmt.Sprintf("base_url must be an absolute http(s) URL, got %q", c.BaseURL))
	}
	if c.Timeout < 0 {
		return NewConfigError("timeout must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return NewConfigError("requests_per_second must not be negative")
	}
	if c.Plan != PlanFull && c.Plan != PlanSimple {
		return NewConfigError(fmt.Sprintf("plan must be %q or %q, got %q", PlanFull, PlanSimple, c.Plan))
	}
	if c.HeaderRow < 0 {
		return NewConfigError("header_row must not be negative")
	}
	if c.TokenField == "" {
		return NewConfigError("token_field must not be empty")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return NewConfigError(fmt.Sprintf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	message string
}

func NewConfigError(message string) *ConfigError {
	return &ConfigError{message: message}
}

func (e *ConfigError) Error() string {
	return e.message
}
