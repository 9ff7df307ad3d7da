// nexchatd - The nexchat assistant server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main runs the nexchat assistant daemon: the HTTP API the TUI
// talks to, the conversation engine behind it, and the document store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/nexhq/nexchat/internal/config"
	"github.com/nexhq/nexchat/internal/engine"
	"github.com/nexhq/nexchat/internal/erp"
	"github.com/nexhq/nexchat/internal/intent"
	"github.com/nexhq/nexchat/internal/server"
)

// sweepInterval is how often expired conversation flows are dropped.
const sweepInterval = time.Minute

func main() {
	// A .env file is optional; environment beats file either way.
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", "", "path to config file")
		listenAddr = flag.String("listen", "", "host:port to bind (overrides config)")
	)
	flag.Parse()

	log := newLogger()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *listenAddr != "" {
		cfg.Server.ListenAddr = *listenAddr
	}
	config.SetGlobal(cfg)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open document store")
	}
	defer store.Close()

	if flag.Arg(0) == "adduser" {
		if err := runAddUser(store, flag.Args()[1:]); err != nil {
			log.Fatal().Err(err).Msg("adduser failed")
		}
		return
	}

	if cfg.Gemini.APIKey == "" {
		log.Fatal().Msg("no Gemini API key: set gemini.api_key or NEXCHAT_GEMINI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := intent.NewExtractor(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.ConcurrentRequests)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create intent extractor")
	}
	defer extractor.Close()

	eng := engine.New(store, extractor,
		time.Duration(cfg.Server.StateTimeoutSecs)*time.Second,
		log.With().Str("component", "engine").Logger())

	sessions := server.NewSessionStore(
		time.Duration(cfg.Server.SessionTimeoutSecs)*time.Second,
		cfg.Server.RatePerMinute)

	srv := server.New(store, eng, sessions, log.With().Str("component", "http").Logger())

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweepLoop(ctx, eng, sessions)
	go watchConfig(ctx, log)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Server.ListenAddr).Str("model", cfg.Gemini.Model).Msg("nexchatd listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("nexchatd stopped")
}

func newLogger() zerolog.Logger {
	var w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	level := zerolog.InfoLevel
	if lv, err := zerolog.ParseLevel(os.Getenv("NEXCHAT_LOG_LEVEL")); err == nil && lv != zerolog.NoLevel {
		level = lv
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// openStore opens the sqlite document store under the configured data
// directory and seeds the default doctypes and roles.
func openStore(cfg *config.Config) (*erp.Store, error) {
	dataDir := cfg.Server.DataDir
	if dataDir == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(dir, "data")
	}

	store, err := erp.Open(filepath.Join(dataDir, "nexchat.db"))
	if err != nil {
		return nil, err
	}
	if err := store.Seed(context.Background()); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// sweepLoop periodically drops expired conversation flows and sessions.
func sweepLoop(ctx context.Context, eng *engine.Engine, sessions *server.SessionStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eng.SweepStates()
			sessions.Sweep()
		}
	}
}

// watchConfig reloads the config file on change. Only the global snapshot
// is swapped; the listen address and store location need a restart.
func watchConfig(ctx context.Context, log zerolog.Logger) {
	err := config.Watch(ctx, func(cfg *config.Config) {
		config.SetGlobal(cfg)
		log.Info().Msg("config reloaded")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("config watch unavailable")
	}
}

// =============================================================================
// ADDUSER
// =============================================================================

// runAddUser registers a user account, prompting for the password on the
// terminal so it never lands in shell history.
func runAddUser(store *erp.Store, args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ExitOnError)
	fullName := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: nexchatd adduser [-name \"Full Name\"] <username>")
	}
	username := strings.TrimSpace(fs.Arg(0))

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := server.HashPassword(string(password))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.CreateUser(ctx, erp.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     *fullName,
		Enabled:      true,
	}); err != nil {
		return err
	}

	fmt.Printf("User %s created.\n", username)
	return nil
}
