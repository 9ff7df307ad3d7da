// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the main chat view for the nexchat TUI.

The chat package implements a terminal chat interface using the Bubble Tea
framework. The user talks to the nexchat assistant server; replies arrive as
plain text, role-selection prompts, or option lists, and the view adapts to
each kind.

# Key Components

## Model (model.go)

The Model struct is the central Bubble Tea model that maintains all chat
state:
  - Conversation transcript
  - Input handling and submission
  - Viewport for transcript scrolling
  - The active interactive block (option list or role selection)
  - In-flight request state

Exactly one request may be outstanding at a time. Submissions made while a
request is in flight are ignored rather than queued, so the transcript order
always matches the request/response order on the wire.

## Update Loop (update.go)

Handles all Bubble Tea messages and user interactions:
  - Keyboard input, including option-list navigation and filtering
  - Reply classification and interactive-block loading
  - The interaction dispatcher for activated options

Activating an option behaves by kind. Role numbers merge into the input
field as a comma-separated list without submitting, so several roles can be
picked before sending. The assign-all and cancel actions submit immediately.
Regular options submit their value after a short settle delay.

## View Rendering (view.go)

Rendering for the complete interface: header, message bubbles, the
interactive option panel, input box, and status bar. Plain assistant text
goes through a glamour markdown renderer.

# Usage

	c, _ := client.New(cfg.Client.ServerURL)
	m := chat.New(c, username, cfg.UI.WordWrap, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
*/
package chat
