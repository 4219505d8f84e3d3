// Package config loads the Velixar client configuration from the
// environment and configures the global logger.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultAPIURL is the hosted Velixar memory API.
const DefaultAPIURL = "https://t4xrnwgo7f.execute-api.us-east-1.amazonaws.com/v1"

// Config holds the client configuration.
// Environment variables are parsed with the VELIXAR_ prefix.
type Config struct {
	APIURL string `envconfig:"API_URL" default:"https://t4xrnwgo7f.execute-api.us-east-1.amazonaws.com/v1"`

	// Tier applied to memories stored without an explicit tier.
	DefaultTier int `envconfig:"DEFAULT_TIER" default:"2"`
	// Tier a listed memory is grouped under when the server omits it.
	GroupingDefaultTier int `envconfig:"GROUPING_DEFAULT_TIER" default:"2"`

	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"60s"`
	Debounce        time.Duration `envconfig:"DEBOUNCE" default:"300ms"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`

	SearchLimit      int `envconfig:"SEARCH_LIMIT" default:"20"`
	QuickSearchLimit int `envconfig:"QUICK_SEARCH_LIMIT" default:"10"`
	ListLimit        int `envconfig:"LIST_LIMIT" default:"100"`

	// CredentialDB is the SQLite file holding the API key. A leading ~ is
	// expanded to the user's home directory.
	CredentialDB string `envconfig:"CREDENTIAL_DB" default:"~/.velixar/credentials.db"`
	PanelAddr    string `envconfig:"PANEL_ADDR" default:"127.0.0.1:7777"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
}

// New creates a Config by parsing environment variables.
// Example: VELIXAR_API_URL, VELIXAR_REFRESH_INTERVAL=30s
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("VELIXAR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveDefaults expands paths and validates ranges.
func (c *Config) ResolveDefaults() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("DEBOUNCE must not be negative, got %s", c.Debounce)
	}
	for name, v := range map[string]int{
		"SEARCH_LIMIT":       c.SearchLimit,
		"QUICK_SEARCH_LIMIT": c.QuickSearchLimit,
		"LIST_LIMIT":         c.ListLimit,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	path, err := expandHome(c.CredentialDB)
	if err != nil {
		return err
	}
	c.CredentialDB = path
	return nil
}

// NewForTesting returns the defaults without consulting the environment.
func NewForTesting() *Config {
	return &Config{
		APIURL:              "http://localhost:8080",
		DefaultTier:         2,
		GroupingDefaultTier: 2,
		RefreshInterval:     60 * time.Second,
		Debounce:            300 * time.Millisecond,
		HTTPTimeout:         30 * time.Second,
		SearchLimit:         20,
		QuickSearchLimit:    10,
		ListLimit:           100,
		CredentialDB:        filepath.Join(os.TempDir(), "velixar-test-credentials.db"),
		PanelAddr:           "127.0.0.1:0",
		LogLevel:            "info",
	}
}

// Level returns the parsed log level, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// Log writes the effective configuration at info level.
func (c *Config) Log() {
	log.Info().
		Str("api_url", c.APIURL).
		Int("default_tier", c.DefaultTier).
		Int("grouping_default_tier", c.GroupingDefaultTier).
		Dur("refresh_interval", c.RefreshInterval).
		Dur("debounce", c.Debounce).
		Str("credential_db", c.CredentialDB).
		Str("log_level", c.Level().String()).
		Msg("Configuration loaded")
}

// ParseLogLevel accepts debug, info, warn and error in any case.
func ParseLogLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unsupported LOG_LEVEL: %s", s)
	}
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
