// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the assistant over HTTP.
//
// The surface mirrors the framework RPC shape the chat client consumes:
// every procedure lives under /api/method/<name>, takes JSON, and wraps
// its result in {"message": ...}. Sessions ride a cookie; process_message
// is rate limited per session.
package server
