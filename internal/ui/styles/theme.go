// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the configured lip gloss styles for the chat UI.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	// Chrome
	Header    lipgloss.Style
	StatusBar lipgloss.Style
	InputBox  lipgloss.Style
	Help      lipgloss.Style

	// Message bubbles
	UserBubble   lipgloss.Style
	BotBubble    lipgloss.Style
	SystemNote   lipgloss.Style
	SenderLabel  lipgloss.Style
	Timestamp    lipgloss.Style
	ErrorMessage lipgloss.Style

	// Option lists
	OptionTitle    lipgloss.Style
	SectionHeader  lipgloss.Style
	OptionItem     lipgloss.Style
	OptionFocused  lipgloss.Style
	OptionDetail   lipgloss.Style
	OptionValue    lipgloss.Style
	FilterPrompt   lipgloss.Style
	FilterNoMatch  lipgloss.Style
	RoleNumber     lipgloss.Style
	ActionButton   lipgloss.Style
	DangerousLabel lipgloss.Style
}

// NewTheme creates a theme, detecting terminal capabilities.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 2)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.BotBubble = lipgloss.NewStyle().
		Foreground(BotBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(BotBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.SystemNote = lipgloss.NewStyle().
		Foreground(SystemFg).
		Italic(true).
		Align(lipgloss.Center)

	t.SenderLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.OptionTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.SectionHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.OptionItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.OptionFocused = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Indigo).
		Bold(true).
		PaddingLeft(1)

	t.OptionDetail = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.OptionValue = lipgloss.NewStyle().
		Foreground(Teal)

	t.FilterPrompt = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.FilterNoMatch = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.RoleNumber = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Teal).
		Bold(true).
		Padding(0, 1)

	t.ActionButton = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Emerald).
		Bold(true).
		Padding(0, 1)

	t.DangerousLabel = lipgloss.NewStyle().
		Foreground(Rose)
}
