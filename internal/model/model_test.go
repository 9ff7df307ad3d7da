// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, "hello")

	if msg.ID == "" {
		t.Error("NewMessage should generate an ID")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("message ID = %q, want msg_ prefix", msg.ID)
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Kind != KindPlain {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindPlain)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestNewBotMessageKind(t *testing.T) {
	msg := NewBotMessage("pick a role", KindRoleSelect)
	if msg.Role != RoleBot {
		t.Errorf("Role = %q, want %q", msg.Role, RoleBot)
	}
	if msg.Kind != KindRoleSelect {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindRoleSelect)
	}
}

func TestKindValid(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindPlain, true},
		{KindRoleSelect, true},
		{KindOptions, true},
		{Kind(""), false},
		{Kind("html"), false},
	}

	for _, tc := range tests {
		if got := tc.kind.Valid(); got != tc.want {
			t.Errorf("Kind(%q).Valid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestRoleDisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleBot, "Nex"},
		{RoleSystem, "System"},
		{Role("other"), "other"},
	}

	for _, tc := range tests {
		if got := tc.role.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}

func TestPreview(t *testing.T) {
	msg := NewMessage(RoleBot, "a long message that needs truncation")
	got := msg.Preview(10)
	if len([]rune(got)) != 10 {
		t.Errorf("Preview(10) length = %d, want 10", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Preview(10) = %q, want ... suffix", got)
	}

	short := NewMessage(RoleBot, "short")
	if short.Preview(10) != "short" {
		t.Errorf("Preview of short message = %q, want unchanged", short.Preview(10))
	}
}

func TestConversationAppendOnly(t *testing.T) {
	conv := NewConversation()

	if !conv.IsEmpty() {
		t.Error("new conversation should be empty")
	}

	u := conv.AddUserMessage("create a customer")
	b := conv.AddBotMessage("What should I name it?", KindPlain)
	conv.AddSystemMessage("note")

	if conv.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", conv.Len())
	}
	if conv.Messages[0] != u || conv.Messages[1] != b {
		t.Error("messages should be appended in order")
	}
	if conv.GetLastBotMessage() != b {
		t.Error("GetLastBotMessage should return the bot message")
	}
	if conv.GetLastMessage().Role != RoleSystem {
		t.Error("GetLastMessage should return the newest entry")
	}
}

func TestConversationGetLastEmpty(t *testing.T) {
	conv := NewConversation()
	if conv.GetLastMessage() != nil {
		t.Error("GetLastMessage on empty conversation should be nil")
	}
	if conv.GetLastBotMessage() != nil {
		t.Error("GetLastBotMessage on empty conversation should be nil")
	}
}

func TestUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		msg := NewMessage(RoleUser, "x")
		if seen[msg.ID] {
			t.Fatalf("duplicate message ID %q", msg.ID)
		}
		seen[msg.ID] = true
	}
}
