// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the global configuration when the config file changes on
// disk. It blocks until ctx is cancelled. onReload, if non-nil, is called
// with each successfully reloaded configuration.
//
// Editors often replace files via rename, so the parent directory is
// watched and events are matched by path. Reloads are debounced because a
// single save can emit several events.
func Watch(ctx context.Context, onReload func(*Config)) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var debounce *time.Timer
	reload := func() {
		cfg, err := Load()
		if err != nil {
			return // keep the last good config
		}
		SetGlobal(cfg)
		if onReload != nil {
			onReload(cfg)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, reload)
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}
