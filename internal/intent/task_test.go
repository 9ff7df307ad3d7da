// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"strings"
	"testing"
)

func TestParseTask(t *testing.T) {
	raw := `{"doctype": "Customer", "action": "create", "data": {"customer_name": "Acme"}}`
	task := ParseTask(raw)

	if task.Action != ActionCreate {
		t.Errorf("Action = %q", task.Action)
	}
	if task.Doctype != "Customer" {
		t.Errorf("Doctype = %q", task.Doctype)
	}
	if task.Data["customer_name"] != "Acme" {
		t.Errorf("Data = %v", task.Data)
	}
	if task.IsClarification() {
		t.Error("create task should not be a clarification")
	}
}

func TestParseTaskFenced(t *testing.T) {
	raw := "```json\n{\"action\": \"list_roles\"}\n```"
	task := ParseTask(raw)
	if task.Action != ActionListRoles {
		t.Errorf("Action = %q, want list_roles", task.Action)
	}

	// Bare fence without language tag.
	raw = "```\n{\"doctype\": \"Item\", \"action\": \"list\"}\n```"
	task = ParseTask(raw)
	if task.Action != ActionList || task.Doctype != "Item" {
		t.Errorf("task = %+v", task)
	}
}

func TestParseTaskGarbage(t *testing.T) {
	for _, raw := range []string{
		"I think you want to create a customer",
		"",
		"{broken json",
	} {
		task := ParseTask(raw)
		if !task.IsClarification() {
			t.Errorf("ParseTask(%q) should be a clarification, got %+v", raw, task)
		}
		if task.Reply != ClarificationReply {
			t.Errorf("Reply = %q", task.Reply)
		}
	}
}

func TestParseTaskUnknownAction(t *testing.T) {
	task := ParseTask(`{"action": "teleport"}`)
	if !task.IsClarification() {
		t.Errorf("unknown action should clarify, got %+v", task)
	}
}

func TestParseTaskModelClarification(t *testing.T) {
	task := ParseTask(`{"reply": "Which customer do you mean?"}`)
	if !task.IsClarification() {
		t.Error("expected clarification")
	}
	if task.Reply != "Which customer do you mean?" {
		t.Errorf("Reply = %q", task.Reply)
	}
}

func TestParseTaskNonStringValues(t *testing.T) {
	raw := `{"doctype": "Item", "action": "list", "filters": {"qty": 5, "active": true}}`
	task := ParseTask(raw)
	if task.Filters["qty"] != "5" {
		t.Errorf("qty = %q, want \"5\"", task.Filters["qty"])
	}
	if task.Filters["active"] != "true" {
		t.Errorf("active = %q", task.Filters["active"])
	}
}

func TestParseTaskAssign(t *testing.T) {
	raw := `{"action": "assign", "target": "jane@acme.io", "assign_type": "role", "value": "Sales User"}`
	task := ParseTask(raw)
	if task.Action != ActionAssign || task.Target != "jane@acme.io" || task.Value != "Sales User" {
		t.Errorf("task = %+v", task)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("jane@acme.io", "list customers", []string{"Customer", "Item"})

	for _, want := range []string{
		"jane@acme.io",
		"list customers",
		"Customer, Item",
		"ONLY the JSON object",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
