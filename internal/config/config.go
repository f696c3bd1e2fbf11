// ABOUTME: Dashboard configuration management.
// ABOUTME: JSON config file under XDG config, with BIODASH_* environment overrides.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"

	"github.com/harperreed/biodash/internal/storage"
)

// Config stores dashboard tool configuration. Environment variables
// override values from the config file.
type Config struct {
	// DataDir is the root directory for the SQLite database.
	// Supports ~ expansion. Defaults to ~/.local/share/biodash.
	DataDir string `json:"data_dir,omitempty" env:"BIODASH_DATA_DIR"`

	// AccountEmail selects the account every command operates on.
	AccountEmail string `json:"account_email,omitempty" env:"BIODASH_ACCOUNT_EMAIL"`

	// Fitbit OAuth application credentials.
	FitbitClientID     string `json:"fitbit_client_id,omitempty" env:"BIODASH_FITBIT_CLIENT_ID"`
	FitbitClientSecret string `json:"fitbit_client_secret,omitempty" env:"BIODASH_FITBIT_CLIENT_SECRET"`
	FitbitRedirectURL  string `json:"fitbit_redirect_url,omitempty" env:"BIODASH_FITBIT_REDIRECT_URL"`

	// HTTPTimeoutSeconds bounds provider API calls. Defaults to 30.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty" env:"BIODASH_HTTP_TIMEOUT_SECONDS"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetAccountEmail returns the configured account email, defaulting to a
// single-user local identity.
func (c *Config) GetAccountEmail() string {
	if c.AccountEmail == "" {
		return "local@biodash"
	}
	return c.AccountEmail
}

// GetHTTPTimeoutSeconds returns the provider call timeout.
func (c *Config) GetHTTPTimeoutSeconds() int {
	if c.HTTPTimeoutSeconds <= 0 {
		return 30
	}
	return c.HTTPTimeoutSeconds
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite repository under the configured data dir.
func (c *Config) OpenStorage() (storage.Repository, error) {
	dbPath := filepath.Join(c.GetDataDir(), "biodash.db")
	return storage.Open(dbPath)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "biodash", "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	path := GetConfigPath()
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
