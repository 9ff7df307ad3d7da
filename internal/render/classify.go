// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/nexhq/nexchat/internal/model"
)

// =============================================================================
// MARKER CONSTANTS
// =============================================================================

const (
	// RoleSelectMarker is the literal substring the server places in a
	// role-selection prompt.
	RoleSelectMarker = "Select Role(s) for"

	// OptionContainerMarker marks an option-list block in server markup.
	OptionContainerMarker = `class="nexchat-options-container"`

	// FieldContainerMarker marks a field-selection block in server markup.
	FieldContainerMarker = `class="nexchat-field-container"`
)

// containerMarkers are the fixed substrings that select the option render
// mode. Order does not matter here since any hit means the same kind.
var containerMarkers = []string{
	OptionContainerMarker,
	FieldContainerMarker,
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify inspects response text and returns the render kind.
// Ordered, first match wins. Role selection takes priority over the
// container markers even when both are present.
func Classify(text string) model.Kind {
	if strings.Contains(text, RoleSelectMarker) && strings.Contains(text, "`") {
		return model.KindRoleSelect
	}
	for _, marker := range containerMarkers {
		if strings.Contains(text, marker) {
			return model.KindOptions
		}
	}
	return model.KindPlain
}

// ClassifyTagged returns the kind for a response that may carry an explicit
// kind tag. A valid tag short-circuits content sniffing; an empty or
// unknown tag falls back to Classify.
func ClassifyTagged(tag string, text string) model.Kind {
	if k := model.Kind(tag); k.Valid() {
		return k
	}
	return Classify(text)
}
