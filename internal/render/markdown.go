// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"html"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown renders assistant prose for terminal display.
type Markdown struct {
	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdown creates a markdown renderer wrapping at the given width.
func NewMarkdown(width int) (*Markdown, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Markdown{renderer: r, width: width}, nil
}

// Render renders markdown text. On renderer failure the raw text is
// returned so the message is never lost.
func (m *Markdown) Render(text string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// SetWidth rebuilds the renderer for a new wrap width. No-op when the
// width is unchanged.
func (m *Markdown) SetWidth(width int) {
	if width <= 0 || width == m.width {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.renderer = r
	m.width = width
	m.mu.Unlock()
}

// =============================================================================
// PLAIN TEXT ESCAPING
// =============================================================================

// EscapeMarkup escapes markup-significant characters in plain responses.
// Applies only to the plain classification path; role-selection and option
// blocks are trusted server markup and pass through unescaped.
func EscapeMarkup(text string) string {
	return html.EscapeString(text)
}
