// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nexhq/nexchat/internal/model"
	"github.com/nexhq/nexchat/internal/render"
	"github.com/nexhq/nexchat/internal/ui/components"
	"github.com/nexhq/nexchat/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady   State = iota // Ready for input
	StateSending              // A request is in flight; input is locked
	StateError                // Showing an error
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
//
// Exactly one request may be outstanding at a time: submissions while in
// StateSending are ignored, so render order always equals response
// arrival order equals submission order.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Conversation
	conversation *model.Conversation
	username     string

	// Rendering
	markdown *render.Markdown

	// Transport
	sender Sender

	// Active interactive block, driven by the latest assistant message.
	optionList *components.OptionList
	activeKind model.Kind
	filterMode bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Key bindings
	keyMap KeyMap

	// Error state. Technical detail goes to the log, never the transcript.
	lastError string
	log       zerolog.Logger
}

// New creates the chat model. Failures are logged with full detail to log;
// the transcript only ever shows the apology text.
func New(sender Sender, username string, wordWrap int, log zerolog.Logger) *Model {
	theme := styles.NewTheme()

	input := textinput.New()
	input.Placeholder = "Ask me to create, list, update or assign…"
	input.CharLimit = 500
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	md, err := render.NewMarkdown(wordWrap)
	if err != nil {
		md = nil // fall back to raw text rendering
	}

	return &Model{
		state:        StateReady,
		theme:        theme,
		conversation: model.NewConversation(),
		username:     username,
		markdown:     md,
		sender:       sender,
		optionList:   components.NewOptionList(theme),
		activeKind:   model.KindPlain,
		viewport:     viewport.New(80, 20),
		input:        input,
		spinner:      sp,
		keyMap:       DefaultKeyMap(),
		log:          log,
	}
}

// Init starts the model.
func (m *Model) Init() tea.Cmd {
	greeting := "👋 Hi **" + m.username + "**! I can create, list, update and delete documents, " +
		"and assign roles. Type `help` to see what I can do."
	m.conversation.AddBotMessage(greeting, model.KindPlain)
	return textinput.Blink
}

// State returns the current view state.
func (m *Model) State() State {
	return m.state
}

// Conversation exposes the transcript.
func (m *Model) Conversation() *model.Conversation {
	return m.conversation
}

// InputValue returns the current input field text.
func (m *Model) InputValue() string {
	return m.input.Value()
}

// optionListActive reports whether the latest assistant message carries
// an interactive block.
func (m *Model) optionListActive() bool {
	return m.activeKind != model.KindPlain && !m.optionList.Empty()
}
