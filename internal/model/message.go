// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the chat transcript.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleBot:
		return "Nex"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// RENDER KIND
// =============================================================================

// Kind selects how a bot message is rendered.
//
// The server tags its responses with an explicit kind where possible; untagged
// responses are classified by content inspection (see internal/render).
type Kind string

const (
	// KindPlain renders the text as an escaped paragraph.
	KindPlain Kind = "plain"
	// KindRoleSelect renders a numbered role-selection block with an
	// assign-all/cancel action row.
	KindRoleSelect Kind = "role_selection"
	// KindOptions renders a filterable, keyboard-navigable option list.
	KindOptions Kind = "options"
)

// Valid reports whether k is a known render kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPlain, KindRoleSelect, KindOptions:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single entry in the transcript.
//
// Messages are append-only: once added to a conversation they are never
// mutated or removed for the lifetime of the session.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Kind:      KindPlain,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewBotMessage creates a new bot message with an explicit render kind.
func NewBotMessage(content string, kind Kind) *Message {
	msg := NewMessage(RoleBot, content)
	msg.Kind = kind
	return msg
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
