// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for nexchat: atomic file
// writes, display-width string handling, and case-folded matching.
package util
