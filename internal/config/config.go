// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for nexchat.
//
// Configuration lives in TOML at ~/.nexchat/config.toml, with sensible
// defaults and environment variable overrides (NEXCHAT_*). The same file
// serves both the chat client and the assistant server; each reads only
// its own sections.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/nexhq/nexchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete nexchat configuration.
type Config struct {
	Version string `toml:"version"`

	// Client configuration (chat TUI)
	Client ClientConfig `toml:"client"`

	// Server configuration (assistant service)
	Server ServerConfig `toml:"server"`

	// Gemini configuration (server side only)
	Gemini GeminiConfig `toml:"gemini"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ClientConfig contains settings for the chat TUI.
type ClientConfig struct {
	// ServerURL is the base URL of the assistant service.
	ServerURL string `toml:"server_url"`
	// Username is the login name sent on session start.
	Username string `toml:"username"`
	// Password is the login secret. Prefer NEXCHAT_PASSWORD over storing
	// it in the file.
	Password string `toml:"password"`
}

// ServerConfig contains settings for the assistant service.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP server binds to.
	ListenAddr string `toml:"listen_addr"`
	// DataDir holds the document database. Empty means ~/.nexchat/data.
	DataDir string `toml:"data_dir"`
	// SessionTimeoutSecs is how long a login session stays valid.
	SessionTimeoutSecs int `toml:"session_timeout_secs"`
	// StateTimeoutSecs is how long an in-progress conversation flow is
	// remembered between messages before it is dropped.
	StateTimeoutSecs int `toml:"state_timeout_secs"`
	// RatePerMinute limits process_message calls per session.
	RatePerMinute int `toml:"rate_per_minute"`
}

// GeminiConfig contains settings for the intent model.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API. Usually set via
	// NEXCHAT_GEMINI_API_KEY rather than the file.
	APIKey string `toml:"api_key"`
	// Model is the generative model used for intent extraction.
	Model string `toml:"model"`
	// ConcurrentRequests bounds in-flight Gemini calls.
	ConcurrentRequests int `toml:"concurrent_requests"`
}

// UIConfig contains visual settings for the TUI.
type UIConfig struct {
	// Theme selects the color theme ("dark" or "light").
	Theme string `toml:"theme"`
	// WordWrap is the markdown render width in columns.
	WordWrap int `toml:"word_wrap"`
	// ShowTimestamps controls per-message timestamps in the transcript.
	ShowTimestamps bool `toml:"show_timestamps"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Client: ClientConfig{
			ServerURL: "http://127.0.0.1:8787",
		},
		Server: ServerConfig{
			ListenAddr:         "127.0.0.1:8787",
			SessionTimeoutSecs: 8 * 60 * 60,
			StateTimeoutSecs:   600,
			RatePerMinute:      30,
		},
		Gemini: GeminiConfig{
			Model:              "gemini-1.5-flash",
			ConcurrentRequests: 5,
		},
		UI: UIConfig{
			Theme:          "dark",
			WordWrap:       80,
			ShowTimestamps: false,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the nexchat configuration directory (~/.nexchat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".nexchat"), nil
}

// ConfigPath returns the path to the TOML configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir resolves the server data directory, falling back to
// ~/.nexchat/data when unset.
func (c *Config) DataDir() (string, error) {
	if c.Server.DataDir != "" {
		return c.Server.DataDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file, falling back to defaults when the file
// does not exist. Environment overrides are applied last, then validation.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Client.ServerURL == "" {
		c.Client.ServerURL = defaults.Client.ServerURL
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if c.Server.SessionTimeoutSecs <= 0 {
		c.Server.SessionTimeoutSecs = defaults.Server.SessionTimeoutSecs
	}
	if c.Server.StateTimeoutSecs <= 0 {
		c.Server.StateTimeoutSecs = defaults.Server.StateTimeoutSecs
	}
	if c.Server.RatePerMinute <= 0 {
		c.Server.RatePerMinute = defaults.Server.RatePerMinute
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = defaults.Gemini.Model
	}
	if c.Gemini.ConcurrentRequests <= 0 {
		c.Gemini.ConcurrentRequests = defaults.Gemini.ConcurrentRequests
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.WordWrap <= 0 {
		c.UI.WordWrap = defaults.UI.WordWrap
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies NEXCHAT_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NEXCHAT_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv("NEXCHAT_USERNAME"); v != "" {
		c.Client.Username = v
	}
	if v := os.Getenv("NEXCHAT_PASSWORD"); v != "" {
		c.Client.Password = v
	}
	if v := os.Getenv("NEXCHAT_LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("NEXCHAT_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("NEXCHAT_GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("NEXCHAT_GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("NEXCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("NEXCHAT_RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.RatePerMinute = n
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration value.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Client.ServerURL); err != nil {
		errs = append(errs, ValidationError{"client.server_url", "must be a valid URL"})
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		errs = append(errs, ValidationError{"ui.theme", "must be \"dark\" or \"light\""})
	}
	if c.UI.WordWrap < 20 || c.UI.WordWrap > 500 {
		errs = append(errs, ValidationError{"ui.word_wrap", "must be between 20 and 500"})
	}
	if c.Server.SessionTimeoutSecs < 60 {
		errs = append(errs, ValidationError{"server.session_timeout_secs", "must be at least 60"})
	}
	if c.Server.StateTimeoutSecs < 10 {
		errs = append(errs, ValidationError{"server.state_timeout_secs", "must be at least 10"})
	}

	return errors.Join(errs...)
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration to a specific path atomically.
// The file is created 0600 since it may hold credentials.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalConfig *Config
	globalMu     sync.RWMutex
)

// Global returns the global configuration, loading it on first access.
// Falls back to defaults if loading fails.
func Global() *Config {
	globalMu.RLock()
	if globalConfig != nil {
		defer globalMu.RUnlock()
		return globalConfig
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global configuration.
func ResetGlobalForTesting() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = nil
}
