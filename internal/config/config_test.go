// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Client.ServerURL == "" {
		t.Error("default server URL should not be empty")
	}
	if cfg.Server.StateTimeoutSecs != 600 {
		t.Errorf("default state timeout = %d, want 600", cfg.Server.StateTimeoutSecs)
	}
	if cfg.UI.Theme != "dark" {
		t.Errorf("default theme = %q, want dark", cfg.UI.Theme)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestFillDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.fillDefaults()

	if cfg.Client.ServerURL != Default().Client.ServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.Client.ServerURL)
	}
	if cfg.Gemini.ConcurrentRequests != 5 {
		t.Errorf("ConcurrentRequests = %d, want 5", cfg.Gemini.ConcurrentRequests)
	}
	if cfg.UI.WordWrap != 80 {
		t.Errorf("WordWrap = %d, want 80", cfg.UI.WordWrap)
	}
}

func TestFillDefaultsPreservesExplicit(t *testing.T) {
	cfg := &Config{}
	cfg.UI.Theme = "light"
	cfg.Server.RatePerMinute = 99
	cfg.fillDefaults()

	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", cfg.UI.Theme)
	}
	if cfg.Server.RatePerMinute != 99 {
		t.Errorf("RatePerMinute = %d, want 99", cfg.Server.RatePerMinute)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad url", func(c *Config) { c.Client.ServerURL = "not a url" }, "client.server_url"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"wrap too small", func(c *Config) { c.UI.WordWrap = 5 }, "ui.word_wrap"},
		{"session too short", func(c *Config) { c.Server.SessionTimeoutSecs = 1 }, "session_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEXCHAT_SERVER_URL", "http://example.com:9000")
	t.Setenv("NEXCHAT_GEMINI_MODEL", "gemini-test")
	t.Setenv("NEXCHAT_RATE_PER_MINUTE", "7")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Client.ServerURL != "http://example.com:9000" {
		t.Errorf("ServerURL = %q", cfg.Client.ServerURL)
	}
	if cfg.Gemini.Model != "gemini-test" {
		t.Errorf("Model = %q", cfg.Gemini.Model)
	}
	if cfg.Server.RatePerMinute != 7 {
		t.Errorf("RatePerMinute = %d", cfg.Server.RatePerMinute)
	}
}

func TestEnvOverridesIgnoreInvalidNumbers(t *testing.T) {
	t.Setenv("NEXCHAT_RATE_PER_MINUTE", "lots")

	cfg := Default()
	want := cfg.Server.RatePerMinute
	cfg.ApplyEnvOverrides()

	if cfg.Server.RatePerMinute != want {
		t.Errorf("RatePerMinute = %d, want %d", cfg.Server.RatePerMinute, want)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Client.ServerURL = "http://10.0.0.1:8080"
	cfg.UI.Theme = "light"

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.Client.ServerURL != cfg.Client.ServerURL {
		t.Errorf("ServerURL = %q, want %q", loaded.Client.ServerURL, cfg.Client.ServerURL)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", loaded.UI.Theme)
	}
}

func TestLoadFromPathPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	partial := "[ui]\ntheme = \"light\"\n"
	if err := os.WriteFile(path, []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", cfg.UI.Theme)
	}
	// Missing sections fall back to defaults.
	if cfg.Client.ServerURL != Default().Client.ServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.Client.ServerURL)
	}
}

func TestGlobalSetAndReset(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	custom := Default()
	custom.UI.WordWrap = 123
	SetGlobal(custom)

	if got := Global().UI.WordWrap; got != 123 {
		t.Errorf("WordWrap = %d, want 123", got)
	}
}

func TestDataDirFallback(t *testing.T) {
	cfg := Default()
	dir, err := cfg.DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if !strings.HasSuffix(dir, filepath.Join(".nexchat", "data")) {
		t.Errorf("DataDir = %q, want ~/.nexchat/data suffix", dir)
	}

	cfg.Server.DataDir = "/tmp/nexdata"
	dir, err = cfg.DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if dir != "/tmp/nexdata" {
		t.Errorf("DataDir = %q", dir)
	}
}
