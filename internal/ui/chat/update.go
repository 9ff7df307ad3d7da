// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the TUI.
//
// This file contains the Update logic: message routing, key handling and
// the interaction dispatcher for option and role-selection blocks.
package chat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexhq/nexchat/internal/model"
	"github.com/nexhq/nexchat/internal/render"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if m.state != StateSending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ReplyMsg:
		return m, m.handleReply(msg)

	case settleSubmitMsg:
		// A request started during the settle delay wins; the stale
		// activation must not clobber the input.
		if m.state == StateSending {
			return m, nil
		}
		// The activated option settles into the input field before the
		// submission fires, so the user sees what was sent.
		m.input.SetValue(msg.Value)
		return m, m.submit()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// resize recomputes component dimensions on terminal size changes.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	contentHeight := height - headerHeight - inputHeight - statusHeight
	if contentHeight < 1 {
		contentHeight = 1
	}
	if !m.ready {
		m.viewport = m.newViewport(width, contentHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = contentHeight
	}
	m.input.Width = width - 6
	m.optionList.SetWidth(width)
	if m.markdown != nil {
		m.markdown.SetWidth(width - 4)
	}
	m.refreshViewport()
}

// =============================================================================
// REPLY HANDLING
// =============================================================================

// errApology is the only failure text the transcript ever shows. The
// underlying error goes to the log.
const errApology = "Sorry, I encountered an error. Please try again."

var errEmptyReply = errors.New("empty response payload")

// handleReply processes the outcome of an in-flight request. An empty
// response body counts as a failure; the assistant always has something
// to say.
func (m *Model) handleReply(msg ReplyMsg) tea.Cmd {
	if msg.Err == nil && (msg.Reply == nil || msg.Reply.Response == "") {
		msg.Err = errEmptyReply
	}
	if msg.Err != nil {
		m.log.Error().Err(msg.Err).Msg("process_message failed")
		m.state = StateError
		m.lastError = errApology
		m.conversation.AddBotMessage(errApology, model.KindPlain)
		m.activeKind = model.KindPlain
		m.input.Focus()
		m.refreshViewport()
		return nil
	}

	m.state = StateReady
	m.lastError = ""

	kind := render.ClassifyTagged(msg.Reply.Kind, msg.Reply.Response)
	m.conversation.AddBotMessage(msg.Reply.Response, kind)
	m.loadInteractive(kind, msg.Reply.Response)

	m.input.Focus()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return nil
}

// loadInteractive replaces the active interactive block with the one
// described by the latest assistant message, if any. A reply that fails
// to parse degrades to plain text rather than an error.
func (m *Model) loadInteractive(kind model.Kind, text string) {
	m.filterMode = false
	switch kind {
	case model.KindRoleSelect:
		sel, err := render.ParseRoleSelection(text)
		if err != nil {
			m.activeKind = model.KindPlain
			return
		}
		m.optionList.SetRoleSelection(sel)
		m.activeKind = model.KindRoleSelect
	case model.KindOptions:
		block, err := render.ParseOptions(text)
		if err != nil {
			m.activeKind = model.KindPlain
			return
		}
		m.optionList.SetBlock(block)
		m.activeKind = model.KindOptions
	default:
		m.activeKind = model.KindPlain
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

// handleKey routes a key press. Quit always wins; filter mode captures
// typing; otherwise keys act on the option list when one is active and
// fall through to the viewport and input when not.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.filterMode {
		return m.handleFilterKey(msg)
	}

	switch {
	case key.Matches(msg, m.keyMap.Up):
		if m.optionListActive() {
			m.optionList.FocusPrev()
			return m, nil
		}
		m.viewport.LineUp(1)
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		if m.optionListActive() {
			m.optionList.FocusNext()
			return m, nil
		}
		m.viewport.LineDown(1)
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Filter):
		if m.optionListActive() {
			m.filterMode = true
		}
		return m, nil

	case key.Matches(msg, m.keyMap.ToggleSection):
		if m.optionListActive() {
			m.optionList.ToggleFocusedSection()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Escape):
		if m.optionListActive() {
			m.optionList.ClearFocus()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		if it, ok := m.optionList.Focused(); ok && m.optionListActive() {
			return m, m.activate(it)
		}
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleFilterKey edits the option filter. Typing narrows the visible
// items in place; hidden items stay in the list and reappear when the
// query shrinks.
func (m *Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Escape):
		m.filterMode = false
		m.optionList.SetFilter("")
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		m.filterMode = false
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		m.optionList.FocusPrev()
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.optionList.FocusNext()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyBackspace:
		q := m.optionList.Filter()
		if q != "" {
			m.optionList.SetFilter(q[:len(q)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.optionList.SetFilter(m.optionList.Filter() + string(msg.Runes))
	}
	return m, nil
}

// =============================================================================
// INTERACTION DISPATCHER
// =============================================================================

// activate dispatches the focused option. Role numbers merge into the
// input without submitting so several can be picked; role actions and
// regular options submit their value.
func (m *Model) activate(it render.OptionItem) tea.Cmd {
	if m.activeKind == model.KindRoleSelect {
		switch it.Value {
		case render.AssignAllSentinel, render.CancelSentinel:
			m.input.SetValue(it.Value)
			return m.submit()
		}
		if n, err := strconv.Atoi(it.Value); err == nil {
			m.input.SetValue(render.MergeRoleNumber(m.input.Value(), n))
			return nil
		}
		m.input.SetValue(it.Value)
		return m.submit()
	}

	return settleSubmitCmd(it.Submission())
}

// submit sends the input field's text. A no-op while a request is in
// flight, which is what guarantees a single outstanding call.
func (m *Model) submit() tea.Cmd {
	if m.state == StateSending {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}

	m.conversation.AddUserMessage(text)
	m.input.SetValue("")
	m.state = StateSending
	m.lastError = ""
	m.activeKind = model.KindPlain
	m.filterMode = false
	m.refreshViewport()
	m.viewport.GotoBottom()

	return tea.Batch(m.spinner.Tick, sendMessageCmd(m.sender, text))
}
