// nexchat - A terminal chat client for the nexchat assistant server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nexhq/nexchat/internal/client"
	"github.com/nexhq/nexchat/internal/config"
	"github.com/nexhq/nexchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file")
		serverURL   = flag.String("server", "", "assistant server URL (overrides config)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("nexchat %s (%s, built %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}
	config.SetGlobal(cfg)

	c := client.New(cfg.Client.ServerURL)

	username, err := establishSession(c, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, closeLog := newClientLogger()
	defer closeLog()

	m := chat.New(c, username, cfg.UI.WordWrap, log)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newClientLogger logs to ~/.nexchat/client.log. Technical failure detail
// belongs here, never in the chat transcript.
func newClientLogger() (zerolog.Logger, func()) {
	dir, err := config.ConfigDir()
	if err != nil {
		return zerolog.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "client.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return zerolog.New(io.Discard), func() {}
	}
	log := zerolog.New(f).With().Timestamp().Logger()
	return log, func() { _ = f.Close() }
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// establishSession resolves the logged-in user, logging in with configured
// credentials when no session exists. Guest sessions never reach the chat
// view; the assistant refuses anonymous callers anyway.
func establishSession(c *client.Client, cfg *config.Config) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	username, err := c.LoggedUser(ctx)
	if err == nil {
		return username, nil
	}
	if !errors.Is(err, client.ErrGuestSession) && !errors.Is(err, client.ErrNotLoggedIn) {
		return "", err
	}

	if cfg.Client.Username == "" || cfg.Client.Password == "" {
		return "", errors.New("not logged in: set client credentials in the config file or NEXCHAT_USERNAME / NEXCHAT_PASSWORD")
	}
	if err := c.Login(ctx, cfg.Client.Username, cfg.Client.Password); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return c.LoggedUser(ctx)
}
