// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for nexchat.
package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
)

// caseFolder performs Unicode case folding for caseless comparisons.
var caseFolder = cases.Fold()

// TruncateDisplay truncates s to at most maxWidth terminal cells, appending
// "..." when anything was cut. Width is measured in display cells, not runes,
// so wide (CJK) characters count as two.
func TruncateDisplay(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadDisplay pads s with spaces to exactly width terminal cells, truncating
// if it is too long.
func PadDisplay(s string, width int) string {
	s = TruncateDisplay(s, width)
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// ContainsFold reports whether substr occurs in s under Unicode case folding.
// Used for option filtering where plain ToLower misses some case pairs.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(caseFolder.String(s), caseFolder.String(substr))
}
