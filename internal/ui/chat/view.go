// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file contains all rendering logic for the chat interface:
//   - Main view layout (header + transcript viewport + input + status bar)
//   - Message bubbles (user, assistant, system)
//   - The interactive option panel appended after the latest reply
//
// Layout: header (1 line) + transcript (viewport) + input (3 lines) +
// status (1 line). The viewport height is derived from these constants in
// resize(); keep them in sync with what the render functions produce.
package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexhq/nexchat/internal/model"
	"github.com/nexhq/nexchat/internal/render"
)

const (
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the complete chat view.
func (m *Model) View() string {
	if !m.ready || m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	transcript := m.viewport.View()
	input := m.renderInput()
	status := m.renderStatusBar()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		transcript,
		input,
		status,
	)
}

// newViewport builds the transcript viewport at the given size.
func (m *Model) newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return vp
}

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTranscript renders every message, with the interactive option
// panel attached below the latest assistant message when one is active.
func (m *Model) renderTranscript() string {
	var b strings.Builder

	messages := m.conversation.Messages
	for i, msg := range messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")

		// The option panel belongs to the newest bot message only.
		if i == len(messages)-1 && msg.Role == model.RoleBot && m.optionListActive() {
			b.WriteString(m.renderOptionPanel())
			b.WriteString("\n")
		}
	}

	if m.state == StateSending {
		b.WriteString(m.theme.SystemNote.Render(m.spinner.View() + " thinking…"))
		b.WriteString("\n")
	}

	return b.String()
}

// renderMessage renders a single message bubble.
func (m *Model) renderMessage(msg *model.Message) string {
	ts := ""
	if !msg.Timestamp.IsZero() {
		ts = m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	}

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.SenderLabel.Render("You") + " " + ts
		body := m.theme.UserBubble.Render(msg.Content)
		return label + "\n" + body + "\n"

	case model.RoleBot:
		label := m.theme.SenderLabel.Render("NexChat") + " " + ts
		body := m.theme.BotBubble.Render(m.renderBotContent(msg))
		return label + "\n" + body + "\n"

	default:
		return m.theme.SystemNote.Render(msg.Content) + "\n"
	}
}

// renderBotContent picks the text representation of an assistant message.
// Interactive kinds show a short summary in the bubble; the full block is
// drawn by the option panel. Plain text goes through the markdown
// renderer when one is available.
func (m *Model) renderBotContent(msg *model.Message) string {
	switch msg.Kind {
	case model.KindRoleSelect:
		if sel, err := render.ParseRoleSelection(msg.Content); err == nil {
			return "🎯 Select role(s) for " + sel.Target
		}
	case model.KindOptions:
		if block, err := render.ParseOptions(msg.Content); err == nil && block.Title != "" {
			return block.Title
		}
		return "Choose an option below."
	}

	if m.markdown != nil {
		return strings.TrimRight(m.markdown.Render(msg.Content), "\n")
	}
	return msg.Content
}

// renderOptionPanel renders the interactive block plus its hint line.
func (m *Model) renderOptionPanel() string {
	panel := m.optionList.View()

	var hint string
	if m.filterMode {
		hint = m.theme.FilterPrompt.Render("filter: " + m.optionList.Filter() + "▏ (esc clears)")
	} else if m.activeKind == model.KindRoleSelect {
		hint = m.theme.Help.Render("↑/↓ move · enter picks a number · C-f filter · C-t fold section")
	} else {
		hint = m.theme.Help.Render("↑/↓ move · enter selects · C-f filter · C-t fold section")
	}

	return panel + "\n" + hint
}

// =============================================================================
// CHROME
// =============================================================================

func (m *Model) renderHeader() string {
	title := " NexChat"
	user := m.username + " "
	pad := m.width - lipgloss.Width(title) - lipgloss.Width(user)
	if pad < 1 {
		pad = 1
	}
	return m.theme.Header.Width(m.width).Render(title + strings.Repeat(" ", pad) + user)
}

func (m *Model) renderInput() string {
	prompt := "> "
	if m.state == StateSending {
		prompt = m.spinner.View() + " "
	}
	box := m.theme.InputBox.Width(m.width - 2).Render(prompt + m.input.View())
	return box
}

func (m *Model) renderStatusBar() string {
	var status string
	switch m.state {
	case StateSending:
		status = "sending…"
	case StateError:
		status = m.theme.ErrorMessage.Render(m.lastError)
	default:
		status = fmt.Sprintf("%d messages", m.conversation.Len())
	}

	help := "enter send · ↑/↓ navigate · C-c quit"
	pad := m.width - lipgloss.Width(status) - lipgloss.Width(help) - 2
	if pad < 1 {
		pad = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(" " + status + strings.Repeat(" ", pad) + help)
}
