// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package erp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "erp.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	name, err := s.CreateDocument(ctx, "Customer", "tester", map[string]string{
		"customer_name": "Acme Corp",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if err := s.Seed(ctx); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if _, err := s.GetDocument(ctx, "Customer", name); err != nil {
		t.Errorf("document lost after reseed: %v", err)
	}
}

func TestCreateDocumentNaming(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateDocument(ctx, "Customer", "tester", map[string]string{"customer_name": "Acme"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	second, err := s.CreateDocument(ctx, "Customer", "tester", map[string]string{"customer_name": "Globex"})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	if first != "CUST-0001" {
		t.Errorf("first = %q, want CUST-0001", first)
	}
	if second != "CUST-0002" {
		t.Errorf("second = %q, want CUST-0002", second)
	}
}

func TestCreateDocumentUnknownDoctype(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateDocument(context.Background(), "Spaceship", "tester", nil)
	if !errors.Is(err, ErrUnknownDoctype) {
		t.Errorf("error = %v, want ErrUnknownDoctype", err)
	}
}

func TestGetUpdateDeleteDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	name, err := s.CreateDocument(ctx, "Lead", "tester", map[string]string{
		"lead_name": "Jane Prospect",
		"status":    "Open",
	})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	doc, err := s.GetDocument(ctx, "Lead", name)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Data["lead_name"] != "Jane Prospect" {
		t.Errorf("lead_name = %q", doc.Data["lead_name"])
	}
	if doc.Owner != "tester" {
		t.Errorf("owner = %q", doc.Owner)
	}

	if err := s.UpdateDocumentField(ctx, "Lead", name, "status", "Contacted"); err != nil {
		t.Fatalf("UpdateDocumentField: %v", err)
	}
	doc, err = s.GetDocument(ctx, "Lead", name)
	if err != nil {
		t.Fatalf("GetDocument after update: %v", err)
	}
	if doc.Data["status"] != "Contacted" {
		t.Errorf("status = %q, want Contacted", doc.Data["status"])
	}

	if err := s.UpdateDocumentField(ctx, "Lead", name, "warp_speed", "9"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field error = %v", err)
	}

	if err := s.DeleteDocument(ctx, "Lead", name); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if _, err := s.GetDocument(ctx, "Lead", name); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteDocument(ctx, "Lead", name); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete error = %v, want ErrNotFound", err)
	}
}

func TestListDocumentsFilterAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, typ := range []string{"Company", "Individual", "Company", "Company"} {
		_, err := s.CreateDocument(ctx, "Customer", "tester", map[string]string{
			"customer_name": "C" + string(rune('A'+i)),
			"customer_type": typ,
		})
		if err != nil {
			t.Fatalf("CreateDocument: %v", err)
		}
	}

	docs, total, err := s.ListDocuments(ctx, "Customer", map[string]string{"customer_type": "Company"}, 2, 0)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(docs) != 2 {
		t.Errorf("len(docs) = %d, want 2 (limit)", len(docs))
	}

	// Newest first.
	if docs[0].Data["customer_name"] != "CD" {
		t.Errorf("first = %q, want CD", docs[0].Data["customer_name"])
	}

	page2, _, err := s.ListDocuments(ctx, "Customer", map[string]string{"customer_type": "Company"}, 2, 2)
	if err != nil {
		t.Fatalf("ListDocuments page 2: %v", err)
	}
	if len(page2) != 1 {
		t.Errorf("len(page2) = %d, want 1", len(page2))
	}
}

func TestRequiredFields(t *testing.T) {
	s := newTestStore(t)
	dt, err := s.GetDoctype(context.Background(), "Customer")
	if err != nil {
		t.Fatalf("GetDoctype: %v", err)
	}

	req := dt.RequiredFields()
	if len(req) != 2 {
		t.Fatalf("len(required) = %d, want 2", len(req))
	}
	if req[0].Name != "customer_name" || req[1].Name != "customer_type" {
		t.Errorf("required = %v", req)
	}
	if req[1].Type != "Select" || req[1].Options == "" {
		t.Errorf("customer_type field = %+v", req[1])
	}
}

func TestRolesAndAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	roles, err := s.ListRoles(ctx)
	if err != nil {
		t.Fatalf("ListRoles: %v", err)
	}
	if len(roles) != len(DefaultRoles) {
		t.Errorf("len(roles) = %d, want %d", len(roles), len(DefaultRoles))
	}

	if err := s.AssignRole(ctx, "jane@acme.io", "Sales User"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	// Assigning twice is a no-op.
	if err := s.AssignRole(ctx, "jane@acme.io", "Sales User"); err != nil {
		t.Fatalf("repeat AssignRole: %v", err)
	}
	if err := s.AssignRole(ctx, "jane@acme.io", "Intergalactic Admin"); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("unknown role error = %v", err)
	}

	held, err := s.UserRoles(ctx, "jane@acme.io")
	if err != nil {
		t.Fatalf("UserRoles: %v", err)
	}
	if len(held) != 1 || held[0] != "Sales User" {
		t.Errorf("held = %v", held)
	}

	has, err := s.HasRole(ctx, "jane@acme.io", "Sales User")
	if err != nil || !has {
		t.Errorf("HasRole = %v, %v", has, err)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.CreateUser(ctx, User{
		Username:     "jane@acme.io",
		PasswordHash: "$2a$10$fakehash",
		FullName:     "Jane Doe",
		Enabled:      true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	u, err := s.GetUser(ctx, "jane@acme.io")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.FullName != "Jane Doe" || !u.Enabled {
		t.Errorf("user = %+v", u)
	}

	if _, err := s.GetUser(ctx, "nobody"); !errors.Is(err, ErrUnknownUser) {
		t.Errorf("missing user error = %v", err)
	}

	exists, err := s.UserExists(ctx, "jane@acme.io")
	if err != nil || !exists {
		t.Errorf("UserExists = %v, %v", exists, err)
	}
}

func TestPermissionLevels(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const user = "sam@acme.io"
	if err := s.AssignRole(ctx, user, "Sales User"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	tests := []struct {
		doctype string
		perm    Perm
		want    bool
	}{
		{"Customer", PermRead, true},
		{"Customer", PermCreate, true},
		{"Customer", PermWrite, true},
		{"Customer", PermDelete, false},
		{"Item", PermRead, true},
		{"Item", PermCreate, false},
		{"Supplier", PermRead, false},
		{"User", PermWrite, false},
		{"NoSuchDoctype", PermRead, false},
	}
	for _, tt := range tests {
		got, err := s.HasPermission(ctx, user, tt.doctype, tt.perm)
		if err != nil {
			t.Fatalf("HasPermission(%s, %s): %v", tt.doctype, tt.perm, err)
		}
		if got != tt.want {
			t.Errorf("HasPermission(%s, %s) = %v, want %v", tt.doctype, tt.perm, got, tt.want)
		}
	}

	// A user with no roles has no permissions at all.
	got, err := s.HasPermission(ctx, "nobody@acme.io", "Customer", PermRead)
	if err != nil {
		t.Fatalf("HasPermission: %v", err)
	}
	if got {
		t.Error("role-less user should have no read permission")
	}
}

func TestAdministratorBypassesPermissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const admin = "root@acme.io"
	if err := s.AssignRole(ctx, admin, AdminRole); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	for _, perm := range []Perm{PermRead, PermCreate, PermWrite, PermDelete} {
		ok, err := s.HasPermission(ctx, admin, "Supplier", perm)
		if err != nil {
			t.Fatalf("HasPermission(%s): %v", perm, err)
		}
		if !ok {
			t.Errorf("administrator denied %s on Supplier", perm)
		}
	}

	docs, err := s.ReadableDoctypes(ctx, admin)
	if err != nil {
		t.Fatalf("ReadableDoctypes: %v", err)
	}
	if len(docs) != len(DefaultDoctypes) {
		t.Errorf("administrator readable doctypes = %v, want all %d", docs, len(DefaultDoctypes))
	}
}

func TestReadableDoctypesFiltersByRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const user = "kim@acme.io"
	if err := s.AssignRole(ctx, user, "Stock User"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	docs, err := s.ReadableDoctypes(ctx, user)
	if err != nil {
		t.Fatalf("ReadableDoctypes: %v", err)
	}
	if len(docs) != 1 || docs[0] != "Item" {
		t.Errorf("ReadableDoctypes = %v, want [Item]", docs)
	}

	none, err := s.ReadableDoctypes(ctx, "nobody@acme.io")
	if err != nil {
		t.Fatalf("ReadableDoctypes: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("role-less user readable doctypes = %v, want none", none)
	}
}

func TestGrantPermissionUnknownRole(t *testing.T) {
	s := newTestStore(t)
	err := s.GrantPermission(context.Background(), Permission{Role: "Ghost", Doctype: "Customer", Read: true})
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("GrantPermission unknown role error = %v", err)
	}
}
