// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
//
// The package defines three core types:
//
//   - Message: a single transcript entry with a sender role and a render kind
//   - Conversation: the append-only ordered message list for one session
//   - Kind: the discriminator selecting how a bot response is rendered
//
// Messages are never mutated or removed after being appended; the transcript
// lives only for the process lifetime. Conversation memory across turns is
// owned by the server, not by this package.
package model
