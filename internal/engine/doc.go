// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine implements the conversation state machine behind
// process_message.
//
// A message either starts a new task (routed through intent extraction)
// or continues an in-progress flow: collecting required fields for a
// create, waiting on a value for an update, role selection, or browsing
// a paginated list. Per-user flow state lives in memory with a TTL, so an
// abandoned conversation simply expires.
package engine
