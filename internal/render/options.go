// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// =============================================================================
// OPTION BLOCK PARSING
// =============================================================================

// OptionItem is a single activatable entry in an option block.
type OptionItem struct {
	// Value is the text submitted when the item is activated. Falls back
	// to Label when the markup carries no value attribute.
	Value string
	// Label is the primary visible text.
	Label string
	// Detail is the secondary line shown under the label, if any.
	Detail string
}

// Submission returns the text to place in the input when the item is
// activated: the value attribute, or the visible label when no value is
// present, with pagination sentinels rewritten to their spoken form.
func (it OptionItem) Submission() string {
	v := it.Value
	if v == "" {
		v = it.Label
	}
	return RewritePagination(v)
}

// OptionSection groups items under a collapsible header.
type OptionSection struct {
	Title string
	Items []OptionItem
}

// OptionBlock is a parsed option-list response.
type OptionBlock struct {
	Title string
	// Sections holds the grouped items. Ungrouped items live in a single
	// section with an empty title.
	Sections []OptionSection
}

// Items returns all items in block order, flattened across sections.
func (b *OptionBlock) Items() []OptionItem {
	var all []OptionItem
	for _, s := range b.Sections {
		all = append(all, s.Items...)
	}
	return all
}

var (
	optionTitleRegex   = regexp.MustCompile(`<div class="options-title">([^<]*)</div>`)
	optionSectionRegex = regexp.MustCompile(`<div class="options-section" data-title="([^"]*)">`)
	optionItemRegex    = regexp.MustCompile(`<div class="option-item"(?: data-value="([^"]*)")?>([^<]*)(?:<span class="option-detail">([^<]*)</span>)?</div>`)
)

// ParseOptions parses server option markup into an OptionBlock. The markup
// is the trusted container format the server emits; attribute values and
// inner text are HTML-unescaped on the way out.
func ParseOptions(text string) (*OptionBlock, error) {
	block := &OptionBlock{}

	if m := optionTitleRegex.FindStringSubmatch(text); m != nil {
		block.Title = html.UnescapeString(strings.TrimSpace(m[1]))
	}

	// Walk lines so items land in the most recently opened section.
	current := OptionSection{}
	flush := func() {
		if current.Title != "" || len(current.Items) > 0 {
			block.Sections = append(block.Sections, current)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if m := optionSectionRegex.FindStringSubmatch(line); m != nil {
			flush()
			current = OptionSection{Title: html.UnescapeString(m[1])}
			continue
		}
		for _, m := range optionItemRegex.FindAllStringSubmatch(line, -1) {
			current.Items = append(current.Items, OptionItem{
				Value:  html.UnescapeString(m[1]),
				Label:  html.UnescapeString(strings.TrimSpace(m[2])),
				Detail: html.UnescapeString(strings.TrimSpace(m[3])),
			})
		}
	}
	flush()

	if len(block.Items()) == 0 {
		return nil, fmt.Errorf("no option items found in markup")
	}
	return block, nil
}

// =============================================================================
// PAGINATION SENTINELS
// =============================================================================

// paginationRewrites maps machine pagination values to the phrases the
// conversation engine understands.
var paginationRewrites = map[string]string{
	"next_page": "next page",
	"prev_page": "previous page",
}

// RewritePagination rewrites pagination sentinel values to their submit
// phrases. Non-sentinel values pass through unchanged.
func RewritePagination(value string) string {
	if rewritten, ok := paginationRewrites[value]; ok {
		return rewritten
	}
	return value
}
