// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package erp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound       = errors.New("document not found")
	ErrUnknownDoctype = errors.New("unknown doctype")
	ErrUnknownRole    = errors.New("unknown role")
	ErrUnknownUser    = errors.New("unknown user")
	ErrUnknownField   = errors.New("unknown field")
)

// =============================================================================
// TYPES
// =============================================================================

// FieldDef describes one field of a doctype.
type FieldDef struct {
	Name     string
	Label    string
	Type     string // Data, Select, Link, Date, Currency, Int
	Options  string // Select choices (newline-separated) or Link target
	Required bool
}

// Doctype is a document category.
type Doctype struct {
	Name       string
	Label      string
	NamePrefix string
	Fields     []FieldDef
}

// RequiredFields returns only the required fields in display order.
func (d *Doctype) RequiredFields() []FieldDef {
	var req []FieldDef
	for _, f := range d.Fields {
		if f.Required {
			req = append(req, f)
		}
	}
	return req
}

// Field looks up a field definition by name.
func (d *Doctype) Field(name string) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Document is a stored record.
type Document struct {
	Doctype   string
	Name      string
	Data      map[string]string
	Owner     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is an account that can log in.
type User struct {
	Username     string
	PasswordHash string
	FullName     string
	Enabled      bool
}

// =============================================================================
// STORE
// =============================================================================

// Store is the sqlite-backed document store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at the given path and applies
// the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite writes are serialized anyway

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(
		`INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)`,
		strconv.Itoa(SchemaVersion),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store, used by tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// DOCTYPES
// =============================================================================

// CreateDoctype registers a doctype and its field metadata.
func (s *Store) CreateDoctype(ctx context.Context, dt Doctype) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO doctypes (name, label, name_prefix, last_seq)
		 VALUES (?, ?, ?, COALESCE((SELECT last_seq FROM doctypes WHERE name = ?), 0))`,
		dt.Name, dt.Label, dt.NamePrefix, dt.Name,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM doctype_fields WHERE doctype = ?`, dt.Name,
	); err != nil {
		return err
	}
	for i, f := range dt.Fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO doctype_fields (doctype, fieldname, label, fieldtype, options, required, idx)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			dt.Name, f.Name, f.Label, f.Type, f.Options, boolToInt(f.Required), i,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetDoctype returns a doctype with its fields.
func (s *Store) GetDoctype(ctx context.Context, name string) (*Doctype, error) {
	dt := &Doctype{}
	err := s.db.QueryRowContext(ctx,
		`SELECT name, label, name_prefix FROM doctypes WHERE name = ?`, name,
	).Scan(&dt.Name, &dt.Label, &dt.NamePrefix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDoctype, name)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT fieldname, label, fieldtype, COALESCE(options, ''), required
		 FROM doctype_fields WHERE doctype = ? ORDER BY idx`, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f FieldDef
		var req int
		if err := rows.Scan(&f.Name, &f.Label, &f.Type, &f.Options, &req); err != nil {
			return nil, err
		}
		f.Required = req != 0
		dt.Fields = append(dt.Fields, f)
	}
	return dt, rows.Err()
}

// ListDoctypes returns all doctype names in sorted order.
func (s *Store) ListDoctypes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM doctypes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// CreateDocument stores a new document and returns its generated name
// (naming prefix plus a zero-padded per-doctype sequence).
func (s *Store) CreateDocument(ctx context.Context, doctype, owner string, data map[string]string) (string, error) {
	dt, err := s.GetDoctype(ctx, doctype)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`UPDATE doctypes SET last_seq = last_seq + 1 WHERE name = ? RETURNING last_seq`,
		doctype,
	).Scan(&seq); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%04d", dt.NamePrefix, seq)

	blob, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (doctype, name, data, owner, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doctype, name, string(blob), owner, now, now,
	); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return name, nil
}

// GetDocument fetches one document by doctype and name.
func (s *Store) GetDocument(ctx context.Context, doctype, name string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT doctype, name, data, owner, created_at, updated_at
		 FROM documents WHERE doctype = ? AND name = ?`, doctype, name,
	)
	return scanDocument(row)
}

// ListDocuments returns documents of a doctype, newest first, filtered by
// exact field matches, with the total match count for pagination.
func (s *Store) ListDocuments(ctx context.Context, doctype string, filters map[string]string, limit, offset int) ([]*Document, int, error) {
	if _, err := s.GetDoctype(ctx, doctype); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}

	where := `doctype = ?`
	args := []any{doctype}
	for field, value := range filters {
		// Field names come from doctype metadata, values are parameters.
		where += ` AND json_extract(data, '$.' || ?) = ?`
		args = append(args, field, value)
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doctype, name, data, owner, created_at, updated_at
		 FROM documents WHERE `+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// UpdateDocumentField sets one field of a document.
func (s *Store) UpdateDocumentField(ctx context.Context, doctype, name, field, value string) error {
	dt, err := s.GetDoctype(ctx, doctype)
	if err != nil {
		return err
	}
	if _, ok := dt.Field(field); !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, doctype, field)
	}

	doc, err := s.GetDocument(ctx, doctype, name)
	if err != nil {
		return err
	}
	if doc.Data == nil {
		doc.Data = map[string]string{}
	}
	doc.Data[field] = value

	blob, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE doctype = ? AND name = ?`,
		string(blob), time.Now().Unix(), doctype, name,
	)
	return err
}

// DeleteDocument removes a document.
func (s *Store) DeleteDocument(ctx context.Context, doctype, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE doctype = ? AND name = ?`, doctype, name,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, doctype, name)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	doc := &Document{}
	var blob string
	var created, updated int64
	err := row.Scan(&doc.Doctype, &doc.Name, &blob, &doc.Owner, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(blob), &doc.Data); err != nil {
		return nil, fmt.Errorf("corrupt document data: %w", err)
	}
	doc.CreatedAt = time.Unix(created, 0)
	doc.UpdatedAt = time.Unix(updated, 0)
	return doc, nil
}

// =============================================================================
// ROLES
// =============================================================================

// CreateRole registers a role name.
func (s *Store) CreateRole(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO roles (name) VALUES (?)`, name)
	return err
}

// ListRoles returns all role names in sorted order.
func (s *Store) ListRoles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// RoleExists reports whether the role is registered.
func (s *Store) RoleExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM roles WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// AssignRole grants a role to a user. Assigning an already-held role is a
// no-op, matching how the conversation reports "already assigned".
func (s *Store) AssignRole(ctx context.Context, username, role string) error {
	ok, err := s.RoleExists(ctx, role)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_roles (username, role) VALUES (?, ?)`,
		username, role,
	)
	return err
}

// UserRoles returns the roles held by a user, sorted.
func (s *Store) UserRoles(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE username = ? ORDER BY role`, username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// HasRole reports whether a user holds a role.
func (s *Store) HasRole(ctx context.Context, username, role string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_roles WHERE username = ? AND role = ?`, username, role,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// =============================================================================
// USERS
// =============================================================================

// CreateUser stores a user account with a pre-hashed password.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO users (username, password_hash, full_name, enabled)
		 VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.FullName, boolToInt(u.Enabled),
	)
	return err
}

// GetUser fetches a user by username.
func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	u := &User{}
	var enabled int
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, COALESCE(full_name, ''), enabled
		 FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.PasswordHash, &u.FullName, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	if err != nil {
		return nil, err
	}
	u.Enabled = enabled != 0
	return u, nil
}

// UserExists reports whether a username is registered.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ?`, username,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ListUsers returns all usernames, sorted.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
