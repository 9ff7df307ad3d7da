// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the nexchat TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/nexhq/nexchat/internal/render"
	"github.com/nexhq/nexchat/internal/ui/styles"
	"github.com/nexhq/nexchat/internal/util"
)

// =============================================================================
// OPTION LIST
// =============================================================================

// OptionList renders an interactive list of option items grouped into
// collapsible sections, with a case-insensitive filter and a single
// focused item navigated circularly over the currently visible items.
// Filtered-out items are hidden, never removed.
type OptionList struct {
	theme *styles.Theme
	title string
	width int

	sections []section
	items    []listItem

	filter string
	// focus indexes items, -1 when nothing is focused.
	focus int
}

type section struct {
	Title    string
	Expanded bool
}

type listItem struct {
	render.OptionItem
	section int
}

// NewOptionList creates an empty list.
func NewOptionList(theme *styles.Theme) *OptionList {
	return &OptionList{
		theme: theme,
		width: 60,
		focus: -1,
	}
}

// SetWidth sets the render width.
func (l *OptionList) SetWidth(width int) {
	if width > 0 {
		l.width = width
	}
}

// SetBlock loads a parsed option block. Sections start expanded; filter
// and focus reset.
func (l *OptionList) SetBlock(block *render.OptionBlock) {
	l.title = block.Title
	l.sections = l.sections[:0]
	l.items = l.items[:0]
	l.filter = ""
	l.focus = -1

	for si, s := range block.Sections {
		l.sections = append(l.sections, section{Title: s.Title, Expanded: true})
		for _, it := range s.Items {
			l.items = append(l.items, listItem{OptionItem: it, section: si})
		}
	}
}

// SetRoleSelection loads a parsed role-selection prompt. Each numbered
// role becomes an item whose value is its number; a trailing action
// section carries the assign-all and cancel entries.
func (l *OptionList) SetRoleSelection(sel *render.RoleSelection) {
	l.title = strings.TrimSpace(render.RoleSelectMarker + " " + sel.Target)
	l.sections = l.sections[:0]
	l.items = l.items[:0]
	l.filter = ""
	l.focus = -1

	sectionIdx := map[string]int{}
	for _, choice := range sel.Choices {
		name := choice.Section
		if name == "" {
			name = "Roles"
		}
		si, ok := sectionIdx[name]
		if !ok {
			si = len(l.sections)
			sectionIdx[name] = si
			l.sections = append(l.sections, section{Title: name, Expanded: true})
		}
		l.items = append(l.items, listItem{
			OptionItem: render.OptionItem{
				Value: fmt.Sprintf("%d", choice.Number),
				Label: choice.Label,
			},
			section: si,
		})
	}

	si := len(l.sections)
	l.sections = append(l.sections, section{Title: "Actions", Expanded: true})
	l.items = append(l.items,
		listItem{OptionItem: render.OptionItem{
			Value: render.AssignAllSentinel,
			Label: "Assign ALL roles",
		}, section: si},
		listItem{OptionItem: render.OptionItem{
			Value: render.CancelSentinel,
			Label: "Cancel",
		}, section: si},
	)
}

// Empty reports whether the list holds no items at all.
func (l *OptionList) Empty() bool {
	return len(l.items) == 0
}

// =============================================================================
// VISIBILITY
// =============================================================================

// visible returns the indexes of currently visible items: filter matches
// only, and collapsed sections hide their items unless a filter query is
// active (any non-empty query auto-expands all sections).
func (l *OptionList) visible() []int {
	var out []int
	for i, it := range l.items {
		if l.filter == "" && !l.sections[it.section].Expanded {
			continue
		}
		if !l.matches(it) {
			continue
		}
		out = append(out, i)
	}
	return out
}

// matches checks the filter against the item's primary and secondary text.
func (l *OptionList) matches(it listItem) bool {
	if l.filter == "" {
		return true
	}
	return util.ContainsFold(it.Label, l.filter) || util.ContainsFold(it.Detail, l.filter)
}

// VisibleLabels returns the labels of currently visible items in order.
func (l *OptionList) VisibleLabels() []string {
	var out []string
	for _, i := range l.visible() {
		out = append(out, l.items[i].Label)
	}
	return out
}

// =============================================================================
// FILTER
// =============================================================================

// SetFilter sets the filter query. Focus is dropped if the focused item
// is filtered out.
func (l *OptionList) SetFilter(query string) {
	l.filter = strings.TrimSpace(query)
	if l.focus >= 0 && !l.focusedVisible() {
		l.focus = -1
	}
}

// Filter returns the current filter query.
func (l *OptionList) Filter() string {
	return l.filter
}

func (l *OptionList) focusedVisible() bool {
	for _, i := range l.visible() {
		if i == l.focus {
			return true
		}
	}
	return false
}

// =============================================================================
// FOCUS
// =============================================================================

// FocusNext moves the focus forward circularly among visible items.
func (l *OptionList) FocusNext() {
	l.moveFocus(1)
}

// FocusPrev moves the focus backward circularly among visible items.
func (l *OptionList) FocusPrev() {
	l.moveFocus(-1)
}

func (l *OptionList) moveFocus(delta int) {
	vis := l.visible()
	if len(vis) == 0 {
		l.focus = -1
		return
	}

	pos := -1
	for vi, i := range vis {
		if i == l.focus {
			pos = vi
			break
		}
	}
	if pos == -1 {
		// Nothing focused yet: land on the first or last visible item.
		if delta > 0 {
			l.focus = vis[0]
		} else {
			l.focus = vis[len(vis)-1]
		}
		return
	}
	l.focus = vis[(pos+delta+len(vis))%len(vis)]
}

// Focused returns the focused item, if any.
func (l *OptionList) Focused() (render.OptionItem, bool) {
	if l.focus < 0 || l.focus >= len(l.items) {
		return render.OptionItem{}, false
	}
	return l.items[l.focus].OptionItem, true
}

// ClearFocus drops the focus.
func (l *OptionList) ClearFocus() {
	l.focus = -1
}

// =============================================================================
// SECTIONS
// =============================================================================

// ToggleFocusedSection flips the expanded flag of the section containing
// the focused item. No-op without focus or while a filter is active.
func (l *OptionList) ToggleFocusedSection() {
	if l.focus < 0 || l.filter != "" {
		return
	}
	si := l.items[l.focus].section
	l.sections[si].Expanded = !l.sections[si].Expanded
	if !l.focusedVisible() {
		l.focus = -1
	}
}

// SectionExpanded reports a section's expanded flag by index.
func (l *OptionList) SectionExpanded(i int) bool {
	if i < 0 || i >= len(l.sections) {
		return false
	}
	return l.sections[i].Expanded
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the list.
func (l *OptionList) View() string {
	var b strings.Builder

	if l.title != "" {
		b.WriteString(l.theme.OptionTitle.Render(util.TruncateDisplay(l.title, l.width)))
		b.WriteString("\n")
	}
	if l.filter != "" {
		b.WriteString(l.theme.FilterPrompt.Render("filter: "+l.filter) + "\n")
	}

	vis := map[int]bool{}
	for _, i := range l.visible() {
		vis[i] = true
	}

	anyShown := false
	for si, s := range l.sections {
		// Section header with disclosure icon. A live filter renders
		// every section as expanded.
		expanded := s.Expanded || l.filter != ""
		icon := "▸"
		if expanded {
			icon = "▾"
		}
		if s.Title != "" {
			b.WriteString(l.theme.SectionHeader.Render(icon+" "+s.Title) + "\n")
		}

		for i, it := range l.items {
			if it.section != si || !vis[i] {
				continue
			}
			anyShown = true
			line := util.TruncateDisplay(it.Label, l.width-6)
			if it.Detail != "" {
				line += " " + l.theme.OptionDetail.Render(util.TruncateDisplay(it.Detail, l.width/3))
			}
			if i == l.focus {
				b.WriteString(l.theme.OptionFocused.Render("▶ "+line) + "\n")
			} else {
				b.WriteString(l.theme.OptionItem.Render(line) + "\n")
			}
		}
	}

	if !anyShown {
		b.WriteString(l.theme.FilterNoMatch.Render("  no matching options") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
