// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package intent turns natural-language requests into structured tasks.
//
// The heavy lifting is delegated to Gemini: a prompt describing the
// available doctypes and the task JSON shape is sent with the user's
// message, and the reply is parsed into a Task. Parse failures degrade to
// a clarification reply rather than an error so the conversation can ask
// the user to rephrase.
package intent
