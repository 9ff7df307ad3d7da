// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// =============================================================================
// GEMINI EXTRACTOR
// =============================================================================

// Extractor converts user messages into tasks via the Gemini API.
type Extractor struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{} // Token bucket
}

// NewExtractor creates an extractor. concurrentReqs bounds in-flight
// Gemini calls.
func NewExtractor(ctx context.Context, apiKey, modelName string, concurrentReqs int) (*Extractor, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetTopP(0.95)

	if concurrentReqs <= 0 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &Extractor{
		client:   client,
		model:    model,
		rateChan: rateChan,
	}, nil
}

// Close releases the underlying client.
func (e *Extractor) Close() {
	e.client.Close()
}

// acquireRate blocks until a rate slot is available.
func (e *Extractor) acquireRate(ctx context.Context) error {
	select {
	case <-e.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (e *Extractor) releaseRate() {
	e.rateChan <- struct{}{}
}

// Extract asks the model to convert a user message into a Task. A model
// call failure is an error; unparseable model output is not, it degrades
// to a clarification task.
func (e *Extractor) Extract(ctx context.Context, user, message string, doctypes []string) (*Task, error) {
	if err := e.acquireRate(ctx); err != nil {
		return nil, err
	}
	defer e.releaseRate()

	prompt := BuildPrompt(user, message, doctypes)
	resp, err := e.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	return ParseTask(text.String()), nil
}

// =============================================================================
// PROMPT
// =============================================================================

// BuildPrompt assembles the task-extraction prompt for one message.
func BuildPrompt(user, message string, doctypes []string) string {
	var b strings.Builder
	b.WriteString("You are an ERP assistant. Your job is to convert natural language into a JSON object.\n")
	fmt.Fprintf(&b, "The user %q said: %q.\n\n", user, message)
	fmt.Fprintf(&b, "Available doctypes for this user: %s\n\n", strings.Join(doctypes, ", "))
	b.WriteString(`Analyze the request and respond with a JSON object holding 'doctype', 'action', and relevant data.

Supported actions:
- "create": Create a new document
- "list": Show/list documents
- "get": Get specific document information
- "update": Update existing document fields
- "delete": Delete a document
- "assign": Assign roles to users
- "help": Provide help information
- "list_roles": List all available roles

Examples:
- "Create a new customer" -> {"doctype": "Customer", "action": "create", "data": {}}
- "Create item with name Widget" -> {"doctype": "Item", "action": "create", "data": {"item_name": "Widget"}}
- "Show me all customers" -> {"doctype": "Customer", "action": "list", "filters": {}}
- "List items where item_group is Raw Material" -> {"doctype": "Item", "action": "list", "filters": {"item_group": "Raw Material"}}
- "Get customer CUST-0001" -> {"doctype": "Customer", "action": "get", "filters": {"name": "CUST-0001"}}
- "Update customer CUST-0001 set customer_name to ABC Corp" -> {"doctype": "Customer", "action": "update", "filters": {"name": "CUST-0001"}, "data": {"customer_name": "ABC Corp"}}
- "Update the email of lead LEAD-0002" -> {"doctype": "Lead", "action": "update", "filters": {"name": "LEAD-0002"}, "field_to_update": "email_id"}
- "Delete item ITEM-0003" -> {"doctype": "Item", "action": "delete", "filters": {"name": "ITEM-0003"}}
- "Assign Sales User role to jane@acme.io" -> {"action": "assign", "target": "jane@acme.io", "assign_type": "role", "value": "Sales User"}
- "Give jane@acme.io some roles" -> {"action": "assign", "target": "jane@acme.io", "assign_type": "role"}
- "Show all roles" -> {"action": "list_roles"}
- "Help me with items" -> {"action": "help", "topic": "Item"}

Important:
- Only use doctypes from the available list
- For create actions, include any mentioned field values in 'data'
- For list/get actions, use 'filters' for search criteria
- For update actions: if both field and value are given, use 'data'; if only the field is mentioned, use 'field_to_update'
- Always extract document identifiers into 'filters' for update/get/delete actions
- If the request is unclear, respond with {"reply": "<question asking the user to clarify>"}

Respond with ONLY the JSON object, no additional text or formatting.
`)
	return b.String()
}
