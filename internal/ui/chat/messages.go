// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file defines the Bubble Tea message types and commands used by the
// chat interface.
package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexhq/nexchat/internal/client"
)

// settleDelay lets the activated option's visual state settle before the
// auto-submitted value is sent.
const settleDelay = 250 * time.Millisecond

// Sender issues one request per submitted message. Satisfied by
// client.Client; tests substitute a fake.
type Sender interface {
	ProcessMessage(ctx context.Context, message string) (*client.Reply, error)
}

// ReplyMsg delivers the outcome of one submission.
type ReplyMsg struct {
	Reply *client.Reply
	Err   error
}

// sendMessageCmd issues exactly one call for the given text.
func sendMessageCmd(sender Sender, text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := sender.ProcessMessage(context.Background(), text)
		return ReplyMsg{Reply: reply, Err: err}
	}
}

// settleSubmitMsg triggers the delayed auto-submit of an activated option.
type settleSubmitMsg struct {
	Value string
}

// settleSubmitCmd schedules the auto-submit after the settle delay.
func settleSubmitCmd(value string) tea.Cmd {
	return tea.Tick(settleDelay, func(time.Time) tea.Msg {
		return settleSubmitMsg{Value: value}
	})
}
