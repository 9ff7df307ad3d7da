// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package erp

import "context"

// =============================================================================
// SEED DATA
// =============================================================================

// DefaultDoctypes are the document categories registered on first run.
var DefaultDoctypes = []Doctype{
	{
		Name: "Customer", Label: "Customer", NamePrefix: "CUST",
		Fields: []FieldDef{
			{Name: "customer_name", Label: "Customer Name", Type: "Data", Required: true},
			{Name: "customer_type", Label: "Customer Type", Type: "Select", Options: "Company\nIndividual", Required: true},
			{Name: "customer_group", Label: "Customer Group", Type: "Data"},
			{Name: "territory", Label: "Territory", Type: "Data"},
		},
	},
	{
		Name: "Supplier", Label: "Supplier", NamePrefix: "SUPP",
		Fields: []FieldDef{
			{Name: "supplier_name", Label: "Supplier Name", Type: "Data", Required: true},
			{Name: "supplier_type", Label: "Supplier Type", Type: "Select", Options: "Company\nIndividual", Required: true},
			{Name: "country", Label: "Country", Type: "Data"},
		},
	},
	{
		Name: "Item", Label: "Item", NamePrefix: "ITEM",
		Fields: []FieldDef{
			{Name: "item_name", Label: "Item Name", Type: "Data", Required: true},
			{Name: "item_group", Label: "Item Group", Type: "Data", Required: true},
			{Name: "stock_uom", Label: "Unit of Measure", Type: "Data"},
			{Name: "standard_rate", Label: "Standard Rate", Type: "Currency"},
		},
	},
	{
		Name: "Lead", Label: "Lead", NamePrefix: "LEAD",
		Fields: []FieldDef{
			{Name: "lead_name", Label: "Lead Name", Type: "Data", Required: true},
			{Name: "status", Label: "Status", Type: "Select", Options: "Open\nContacted\nConverted\nLost"},
			{Name: "email_id", Label: "Email", Type: "Data"},
		},
	},
	{
		Name: "ToDo", Label: "ToDo", NamePrefix: "TODO",
		Fields: []FieldDef{
			{Name: "description", Label: "Description", Type: "Data", Required: true},
			{Name: "priority", Label: "Priority", Type: "Select", Options: "Low\nMedium\nHigh"},
			{Name: "date", Label: "Due Date", Type: "Date"},
		},
	},
}

// DefaultRoles are the assignable roles registered on first run.
var DefaultRoles = []string{
	"Administrator",
	"System Manager",
	"Website Manager",
	"Sales User",
	"Sales Manager",
	"Purchase User",
	"Purchase Manager",
	"Accounts User",
	"Accounts Manager",
	"Stock User",
	"Stock Manager",
	"HR User",
	"HR Manager",
	"Projects User",
	"Support Team",
	"Employee",
	"Customer",
	"Supplier",
}

// DefaultPermissions are the role grants registered on first run,
// following the access the matching ERPNext roles carry. Administrator is
// absent: holders bypass checks entirely.
var DefaultPermissions = []Permission{
	// System Manager: everything, plus the virtual User and Role targets.
	{Role: "System Manager", Doctype: "Customer", Read: true, Create: true, Write: true, Delete: true},
	{Role: "System Manager", Doctype: "Supplier", Read: true, Create: true, Write: true, Delete: true},
	{Role: "System Manager", Doctype: "Item", Read: true, Create: true, Write: true, Delete: true},
	{Role: "System Manager", Doctype: "Lead", Read: true, Create: true, Write: true, Delete: true},
	{Role: "System Manager", Doctype: "ToDo", Read: true, Create: true, Write: true, Delete: true},
	{Role: "System Manager", Doctype: "User", Read: true, Write: true},
	{Role: "System Manager", Doctype: "Role", Read: true},

	{Role: "Sales Manager", Doctype: "Customer", Read: true, Create: true, Write: true, Delete: true},
	{Role: "Sales Manager", Doctype: "Lead", Read: true, Create: true, Write: true, Delete: true},
	{Role: "Sales Manager", Doctype: "Item", Read: true},
	{Role: "Sales User", Doctype: "Customer", Read: true, Create: true, Write: true},
	{Role: "Sales User", Doctype: "Lead", Read: true, Create: true, Write: true},
	{Role: "Sales User", Doctype: "Item", Read: true},

	{Role: "Purchase Manager", Doctype: "Supplier", Read: true, Create: true, Write: true, Delete: true},
	{Role: "Purchase Manager", Doctype: "Item", Read: true},
	{Role: "Purchase User", Doctype: "Supplier", Read: true, Create: true, Write: true},
	{Role: "Purchase User", Doctype: "Item", Read: true},

	{Role: "Stock Manager", Doctype: "Item", Read: true, Create: true, Write: true, Delete: true},
	{Role: "Stock User", Doctype: "Item", Read: true, Create: true, Write: true},

	{Role: "Accounts Manager", Doctype: "Customer", Read: true},
	{Role: "Accounts Manager", Doctype: "Supplier", Read: true},
	{Role: "Accounts Manager", Doctype: "Item", Read: true},
	{Role: "Accounts User", Doctype: "Customer", Read: true},
	{Role: "Accounts User", Doctype: "Supplier", Read: true},

	{Role: "HR Manager", Doctype: "ToDo", Read: true, Create: true, Write: true, Delete: true},
	{Role: "HR Manager", Doctype: "User", Read: true, Write: true},
	{Role: "HR Manager", Doctype: "Role", Read: true},
	{Role: "HR User", Doctype: "ToDo", Read: true, Create: true, Write: true},

	{Role: "Projects User", Doctype: "ToDo", Read: true, Create: true, Write: true},
	{Role: "Support Team", Doctype: "ToDo", Read: true, Create: true, Write: true},
	{Role: "Support Team", Doctype: "Customer", Read: true},
	{Role: "Employee", Doctype: "ToDo", Read: true, Create: true, Write: true},

	{Role: "Website Manager", Doctype: "Lead", Read: true},
}

// Seed registers the default doctypes, roles, and role permissions. Safe
// to call on every startup; existing documents and role assignments are
// untouched, while the default grants are reasserted.
func (s *Store) Seed(ctx context.Context) error {
	for _, dt := range DefaultDoctypes {
		if err := s.CreateDoctype(ctx, dt); err != nil {
			return err
		}
	}
	for _, role := range DefaultRoles {
		if err := s.CreateRole(ctx, role); err != nil {
			return err
		}
	}
	for _, p := range DefaultPermissions {
		if err := s.GrantPermission(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
