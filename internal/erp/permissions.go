// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package erp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// =============================================================================
// PERMISSIONS
// =============================================================================

// Perm is one of the four access levels a role can hold on a doctype.
type Perm string

const (
	PermRead   Perm = "read"
	PermCreate Perm = "create"
	PermWrite  Perm = "write"
	PermDelete Perm = "delete"
)

// AdminRole holders bypass all permission checks.
const AdminRole = "Administrator"

// Permission is one role's access to one doctype. Doctype is a plain name
// rather than a foreign key so virtual targets (User, Role) can be gated
// the same way as document doctypes.
type Permission struct {
	Role    string
	Doctype string
	Read    bool
	Create  bool
	Write   bool
	Delete  bool
}

// permColumn maps a Perm to its schema column. Perm values come from code,
// never from user input, but the lookup keeps the level out of the SQL
// string anyway.
func permColumn(perm Perm) (string, error) {
	switch perm {
	case PermRead:
		return "can_read", nil
	case PermCreate:
		return "can_create", nil
	case PermWrite:
		return "can_write", nil
	case PermDelete:
		return "can_delete", nil
	}
	return "", fmt.Errorf("unknown permission level %q", perm)
}

// GrantPermission records a role's access to a doctype, replacing any
// existing grant for the pair.
func (s *Store) GrantPermission(ctx context.Context, p Permission) error {
	ok, err := s.RoleExists(ctx, p.Role)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRole, p.Role)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO role_permissions
		     (role, doctype, can_read, can_create, can_write, can_delete)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Role, p.Doctype, boolInt(p.Read), boolInt(p.Create), boolInt(p.Write), boolInt(p.Delete),
	)
	return err
}

// HasPermission reports whether any of the user's roles grants the given
// level on the doctype. Unknown doctypes simply have no grants.
func (s *Store) HasPermission(ctx context.Context, username, doctype string, perm Perm) (bool, error) {
	admin, err := s.HasRole(ctx, username, AdminRole)
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}

	col, err := permColumn(perm)
	if err != nil {
		return false, err
	}
	var one int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1
		   FROM user_roles ur
		   JOIN role_permissions rp ON rp.role = ur.role
		  WHERE ur.username = ? AND rp.doctype = ? AND rp.`+col+` = 1
		  LIMIT 1`,
		username, doctype,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReadableDoctypes returns the registered doctypes the user may read, in
// sorted order. This is the doctype list offered to intent extraction, so
// the model is never told about documents the user cannot see.
func (s *Store) ReadableDoctypes(ctx context.Context, username string) ([]string, error) {
	admin, err := s.HasRole(ctx, username, AdminRole)
	if err != nil {
		return nil, err
	}
	if admin {
		return s.ListDoctypes(ctx)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.name
		   FROM doctypes d
		  WHERE EXISTS (
		        SELECT 1
		          FROM user_roles ur
		          JOIN role_permissions rp ON rp.role = ur.role
		         WHERE ur.username = ? AND rp.doctype = d.name AND rp.can_read = 1)
		  ORDER BY d.name`,
		username,
	)
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

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
