// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// ROLE SELECTION PARSING
// =============================================================================

const (
	// AssignAllSentinel is the phrase submitted by the assign-all action.
	AssignAllSentinel = "all roles"

	// CancelSentinel is the phrase submitted by the cancel action.
	CancelSentinel = "cancel"
)

// RoleChoice is a single numbered role in a selection prompt.
type RoleChoice struct {
	Number int
	Label  string
	// Section is the group header the choice appeared under, if any.
	Section string
}

// RoleSelection is a parsed role-selection prompt.
type RoleSelection struct {
	// Target is the user the roles will be assigned to.
	Target string
	// Choices are the numbered roles in prompt order.
	Choices []RoleChoice
	// Footer holds the instruction lines that follow the choices.
	Footer string
}

var (
	// Backtick-wrapped integer followed by a bold label, e.g. `3` **Sales User**
	roleChoiceRegex = regexp.MustCompile("`(\\d+)`\\s*\\*\\*([^*]+)\\*\\*")

	// Target user after the marker, e.g. **Select Role(s) for jane@acme.io**
	roleTargetRegex = regexp.MustCompile(`Select Role\(s\) for\s+([^*\n]+)`)

	// Bold header line ending in a colon, e.g. **System & Management Roles:**
	sectionHeaderRegex = regexp.MustCompile(`^\*\*(.+):\*\*$`)
)

// ParseRoleSelection extracts the target user and the numbered role choices
// from a role-selection prompt. The prompt is server-produced markdown, so
// anything that does not match a choice or header line is treated as footer
// instructions.
func ParseRoleSelection(text string) (*RoleSelection, error) {
	sel := &RoleSelection{}

	if m := roleTargetRegex.FindStringSubmatch(text); m != nil {
		sel.Target = strings.TrimSpace(strings.TrimSuffix(m[1], "**"))
	}

	var footer []string
	section := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := sectionHeaderRegex.FindStringSubmatch(trimmed); m != nil {
			section = strings.TrimSpace(m[1])
			continue
		}
		if m := roleChoiceRegex.FindStringSubmatch(trimmed); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			sel.Choices = append(sel.Choices, RoleChoice{
				Number:  n,
				Label:   strings.TrimSpace(m[2]),
				Section: section,
			})
			continue
		}
		if strings.Contains(trimmed, RoleSelectMarker) {
			continue
		}
		footer = append(footer, trimmed)
	}
	sel.Footer = strings.Join(footer, "\n")

	if len(sel.Choices) == 0 {
		return nil, fmt.Errorf("no role choices found in prompt")
	}
	return sel, nil
}

// MergeRoleNumber merges a clicked role number into the current input text.
// An empty input becomes the bare number; an input already holding a number
// or comma list gets the number comma-appended; anything else is replaced.
func MergeRoleNumber(input string, number int) string {
	n := strconv.Itoa(number)
	current := strings.TrimSpace(input)
	if current == "" {
		return n
	}
	if isCommaNumberList(current) {
		return current + "," + n
	}
	return n
}

// isCommaNumberList reports whether s is a bare number or a comma-separated
// list of numbers.
func isCommaNumberList(s string) bool {
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return false
		}
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}
