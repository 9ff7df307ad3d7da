// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package erp

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the document store
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Doctypes: document categories with a naming prefix and sequence
CREATE TABLE IF NOT EXISTS doctypes (
    name TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    name_prefix TEXT NOT NULL,
    last_seq INTEGER NOT NULL DEFAULT 0
) WITHOUT ROWID;

-- Field metadata per doctype
CREATE TABLE IF NOT EXISTS doctype_fields (
    doctype TEXT NOT NULL,
    fieldname TEXT NOT NULL,
    label TEXT NOT NULL,
    fieldtype TEXT NOT NULL,    -- Data, Select, Link, Date, Currency, Int
    options TEXT,               -- Select choices or Link target doctype
    required INTEGER NOT NULL DEFAULT 0,
    idx INTEGER NOT NULL,       -- display order
    PRIMARY KEY (doctype, fieldname),
    FOREIGN KEY (doctype) REFERENCES doctypes(name) ON DELETE CASCADE
);

-- Documents: field values live in a JSON bag
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    doctype TEXT NOT NULL,
    name TEXT NOT NULL UNIQUE,
    data TEXT NOT NULL,         -- JSON object of field values
    owner TEXT NOT NULL,
    created_at INTEGER NOT NULL, -- Unix timestamp
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (doctype) REFERENCES doctypes(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_documents_doctype ON documents(doctype);
CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner);

-- Roles available for assignment
CREATE TABLE IF NOT EXISTS roles (
    name TEXT PRIMARY KEY
) WITHOUT ROWID;

-- Users who can log in to the assistant
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    full_name TEXT,
    enabled INTEGER NOT NULL DEFAULT 1
);

-- Role assignments
CREATE TABLE IF NOT EXISTS user_roles (
    username TEXT NOT NULL,
    role TEXT NOT NULL,
    PRIMARY KEY (username, role),
    FOREIGN KEY (role) REFERENCES roles(name) ON DELETE CASCADE
) WITHOUT ROWID;

-- Per-role, per-doctype permissions. The doctype column is a plain name
-- so virtual targets like User and Role can be gated too.
CREATE TABLE IF NOT EXISTS role_permissions (
    role TEXT NOT NULL,
    doctype TEXT NOT NULL,
    can_read INTEGER NOT NULL DEFAULT 0,
    can_create INTEGER NOT NULL DEFAULT 0,
    can_write INTEGER NOT NULL DEFAULT 0,
    can_delete INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (role, doctype),
    FOREIGN KEY (role) REFERENCES roles(name) ON DELETE CASCADE
) WITHOUT ROWID;
`
