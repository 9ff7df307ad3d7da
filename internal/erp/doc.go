// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package erp implements the document store behind the assistant.
//
// Documents are grouped by doctype. Each doctype declares its field
// metadata (label, type, required) and a naming prefix; document field
// values live in a JSON bag so new doctypes need no schema change. The
// store also owns users, roles, role assignments, and the per-role
// doctype permissions the conversation engine enforces. Administrator
// holders bypass permission checks.
package erp
