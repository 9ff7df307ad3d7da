// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render classifies and parses assistant responses for display.
//
// A response arrives as a single text field that may be plain prose,
// markdown containing a role-selection prompt, or option-list markup
// produced by the server. Classification is ordered and first match wins:
//
//  1. role-selection marker plus a backtick -> role selection block
//  2. any container marker substring       -> option block (trusted markup)
//  3. otherwise                            -> plain paragraph, escaped
//
// When the server supplies an explicit kind tag in the envelope, that tag
// wins and content sniffing is skipped. The sniffing path remains for
// legacy servers that only ship bare text.
package render
