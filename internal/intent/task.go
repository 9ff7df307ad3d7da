// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// =============================================================================
// TASK TYPES
// =============================================================================

// Action is a task verb the engine can execute.
type Action string

const (
	ActionCreate    Action = "create"
	ActionList      Action = "list"
	ActionGet       Action = "get"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionAssign    Action = "assign"
	ActionHelp      Action = "help"
	ActionListRoles Action = "list_roles"
)

// Valid reports whether the action is one the engine executes.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionList, ActionGet, ActionUpdate,
		ActionDelete, ActionAssign, ActionHelp, ActionListRoles:
		return true
	}
	return false
}

// Task is the structured form of one user request.
type Task struct {
	Doctype string            `json:"doctype,omitempty"`
	Action  Action            `json:"action"`
	Data    map[string]string `json:"data,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`

	// FieldToUpdate names the field when the user gave a field but no
	// value ("update the email of CUST-0001").
	FieldToUpdate string `json:"field_to_update,omitempty"`

	// Assign details: Target is the user, AssignType is what gets
	// assigned ("role"), Value is the role name when stated.
	Target     string `json:"target,omitempty"`
	AssignType string `json:"assign_type,omitempty"`
	Value      string `json:"value,omitempty"`

	// Topic carries the subject of a help request.
	Topic string `json:"topic,omitempty"`

	// Reply is set instead of an action when the model asks the user to
	// clarify.
	Reply string `json:"reply,omitempty"`
}

// IsClarification reports whether the task is a clarification reply
// rather than an executable action.
func (t *Task) IsClarification() bool {
	return t.Reply != "" && !t.Action.Valid()
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTask decodes a model reply into a Task. Markdown code fences are
// stripped first since models wrap JSON despite instructions. A reply
// that is not valid JSON becomes a clarification task, never an error.
func ParseTask(raw string) *Task {
	clean := StripFences(raw)

	var task Task
	if err := json.Unmarshal([]byte(clean), &task); err != nil {
		return &Task{Reply: ClarificationReply}
	}
	if !task.Action.Valid() && task.Reply == "" {
		return &Task{Reply: ClarificationReply}
	}
	return &task
}

// ClarificationReply is shown when the model output cannot be understood.
const ClarificationReply = "I had trouble understanding your request. Could you please rephrase it more clearly?"

// StripFences removes a surrounding markdown code fence from model output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// flexMap tolerates non-string JSON values, stringifying numbers and
// booleans so filters like {"qty": 5} survive decoding.
type flexMap map[string]string

func (m *flexMap) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strings.TrimSuffix(fmt.Sprintf("%v", val), ".0")
		case bool:
			out[k] = fmt.Sprintf("%v", val)
		case nil:
			out[k] = ""
		default:
			blob, _ := json.Marshal(val)
			out[k] = string(blob)
		}
	}
	*m = out
	return nil
}

// UnmarshalJSON for Task routes Data and Filters through flexMap.
func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	aux := struct {
		Data    flexMap `json:"data,omitempty"`
		Filters flexMap `json:"filters,omitempty"`
		*alias
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.Data = aux.Data
	t.Filters = aux.Filters
	return nil
}
