// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"testing"

	"github.com/nexhq/nexchat/internal/render"
	"github.com/nexhq/nexchat/internal/ui/styles"
)

func testBlock() *render.OptionBlock {
	return &render.OptionBlock{
		Title: "Customers",
		Sections: []render.OptionSection{
			{Title: "Recent", Items: []render.OptionItem{
				{Value: "CUST-0001", Label: "Acme Corp", Detail: "Customer"},
				{Value: "CUST-0002", Label: "Globex", Detail: "Customer"},
			}},
			{Title: "Actions", Items: []render.OptionItem{
				{Value: "next_page", Label: "Next page"},
			}},
		},
	}
}

func newTestList(t *testing.T) *OptionList {
	t.Helper()
	l := NewOptionList(styles.NewTheme())
	l.SetBlock(testBlock())
	return l
}

func TestFocusWrapsCircularly(t *testing.T) {
	l := newTestList(t)

	l.FocusNext()
	if it, ok := l.Focused(); !ok || it.Label != "Acme Corp" {
		t.Fatalf("first focus = %v, %v", it, ok)
	}

	l.FocusNext()
	l.FocusNext()
	if it, _ := l.Focused(); it.Label != "Next page" {
		t.Fatalf("third focus = %v", it)
	}

	// Forward past the end wraps to the first visible item.
	l.FocusNext()
	if it, _ := l.Focused(); it.Label != "Acme Corp" {
		t.Errorf("wrap forward = %v", it)
	}

	// Backward from the first wraps to the last.
	l.FocusPrev()
	if it, _ := l.Focused(); it.Label != "Next page" {
		t.Errorf("wrap backward = %v", it)
	}
}

func TestFocusPrevFromNothingLandsOnLast(t *testing.T) {
	l := newTestList(t)
	l.FocusPrev()
	if it, _ := l.Focused(); it.Label != "Next page" {
		t.Errorf("focus = %v", it)
	}
}

func TestFilterHidesWithoutRemoving(t *testing.T) {
	l := newTestList(t)

	l.SetFilter("glo")
	if got := l.VisibleLabels(); len(got) != 1 || got[0] != "Globex" {
		t.Errorf("visible = %v", got)
	}

	// Clearing the filter restores everything; nothing was removed.
	l.SetFilter("")
	if got := l.VisibleLabels(); len(got) != 3 {
		t.Errorf("visible after clear = %v", got)
	}
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	l := newTestList(t)
	l.SetFilter("ACME")
	if got := l.VisibleLabels(); len(got) != 1 || got[0] != "Acme Corp" {
		t.Errorf("visible = %v", got)
	}
}

func TestFilterMatchesDetailText(t *testing.T) {
	l := newTestList(t)
	l.SetFilter("customer")
	if got := l.VisibleLabels(); len(got) != 2 {
		t.Errorf("visible = %v", got)
	}
}

func TestFilterZeroMatches(t *testing.T) {
	l := newTestList(t)
	l.SetFilter("zzz")

	if got := l.VisibleLabels(); len(got) != 0 {
		t.Errorf("visible = %v", got)
	}
	// Navigation over zero visible items is a no-op, not a panic.
	l.FocusNext()
	if _, ok := l.Focused(); ok {
		t.Error("focus should be empty with zero matches")
	}
}

func TestFilterDropsHiddenFocus(t *testing.T) {
	l := newTestList(t)
	l.FocusNext() // Acme Corp
	l.SetFilter("globex")
	if _, ok := l.Focused(); ok {
		t.Error("focus should drop when the focused item is filtered out")
	}
}

func TestCollapsedSectionHidesItems(t *testing.T) {
	l := newTestList(t)

	l.FocusNext() // Acme Corp, in section 0
	l.ToggleFocusedSection()

	if l.SectionExpanded(0) {
		t.Error("section 0 should be collapsed")
	}
	if got := l.VisibleLabels(); len(got) != 1 || got[0] != "Next page" {
		t.Errorf("visible = %v", got)
	}
	if _, ok := l.Focused(); ok {
		t.Error("focus inside a collapsed section should drop")
	}
}

func TestFilterAutoExpandsCollapsedSections(t *testing.T) {
	l := newTestList(t)
	l.FocusNext()
	l.ToggleFocusedSection() // collapse "Recent"

	// A non-empty query surfaces items from collapsed sections too.
	l.SetFilter("acme")
	if got := l.VisibleLabels(); len(got) != 1 || got[0] != "Acme Corp" {
		t.Errorf("visible = %v", got)
	}
	// The collapsed flag itself is untouched.
	if l.SectionExpanded(0) {
		t.Error("expanded flag should survive filtering")
	}
}

func TestNavigationSkipsHiddenItems(t *testing.T) {
	l := newTestList(t)
	l.SetFilter("customer") // Acme Corp + Globex visible, Next page hidden

	l.FocusNext()
	l.FocusNext()
	l.FocusNext() // wraps within the two visible
	if it, _ := l.Focused(); it.Label != "Acme Corp" {
		t.Errorf("focus = %v", it)
	}
}

func TestSetRoleSelection(t *testing.T) {
	l := NewOptionList(styles.NewTheme())
	sel := &render.RoleSelection{
		Target: "jane@acme.io",
		Choices: []render.RoleChoice{
			{Number: 1, Label: "Administrator", Section: "System"},
			{Number: 2, Label: "Sales User", Section: "User"},
		},
	}
	l.SetRoleSelection(sel)

	labels := l.VisibleLabels()
	want := []string{"Administrator", "Sales User", "Assign ALL roles", "Cancel"}
	if len(labels) != len(want) {
		t.Fatalf("labels = %v", labels)
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("labels[%d] = %q, want %q", i, labels[i], want[i])
		}
	}

	// Role items carry their number as the activation value.
	l.FocusNext()
	if it, _ := l.Focused(); it.Value != "1" {
		t.Errorf("value = %q", it.Value)
	}
}
