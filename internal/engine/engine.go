// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nexhq/nexchat/internal/erp"
	"github.com/nexhq/nexchat/internal/intent"
	"github.com/nexhq/nexchat/internal/model"
	"github.com/nexhq/nexchat/internal/render"
)

// =============================================================================
// ENGINE
// =============================================================================

// DefaultPageSize is how many documents a list page shows.
const DefaultPageSize = 10

// TaskExtractor converts one user message into a structured task.
// Satisfied by intent.Extractor; tests substitute a fake.
type TaskExtractor interface {
	Extract(ctx context.Context, user, message string, doctypes []string) (*intent.Task, error)
}

// Reply is the engine's answer to one message: the text plus the render
// kind the client should use.
type Reply struct {
	Text string
	Kind model.Kind
}

func plainReply(format string, args ...any) *Reply {
	return &Reply{Text: fmt.Sprintf(format, args...), Kind: model.KindPlain}
}

// Engine executes conversation turns.
type Engine struct {
	store     *erp.Store
	extractor TaskExtractor
	states    *StateStore
	log       zerolog.Logger
	pageSize  int
}

// New creates an engine. stateTTL bounds how long an unfinished flow is
// remembered.
func New(store *erp.Store, extractor TaskExtractor, stateTTL time.Duration, log zerolog.Logger) *Engine {
	return &Engine{
		store:     store,
		extractor: extractor,
		states:    NewStateStore(stateTTL),
		log:       log,
		pageSize:  DefaultPageSize,
	}
}

// SweepStates drops expired conversation flows. Call it periodically so
// abandoned flows do not accumulate.
func (e *Engine) SweepStates() {
	e.states.Sweep()
}

// ProcessMessage handles one inbound message for a user and returns the
// reply to render.
func (e *Engine) ProcessMessage(ctx context.Context, user, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return plainReply("Say something like \"create a new customer\" or \"help\" to get started."), nil
	}

	state := e.states.Get(user)

	if state != nil {
		// Flow-local sentinels first. Role selection owns its own
		// cancel and assign-all phrases, which overlap the new-action
		// keywords.
		if state.Phase == PhaseCollectRoleSelection {
			return e.handleRoleSelection(ctx, user, message, state)
		}
		if isCancel(message) {
			e.states.Clear(user)
			return plainReply("Cancelled. What would you like to do next?"), nil
		}
		if state.Phase == PhaseBrowseList && isPageNav(message) {
			return e.handlePageNav(ctx, user, message, state)
		}
		if isNewActionRequest(message) {
			e.states.Clear(user)
			return e.startTask(ctx, user, message)
		}
		switch state.Phase {
		case PhaseCollectFields:
			return e.handleFieldCollection(ctx, user, message, state)
		case PhaseCollectUpdateValue:
			return e.handleUpdateValue(ctx, user, message, state)
		case PhaseBrowseList:
			// Any other text while browsing starts over.
			e.states.Clear(user)
		}
	}

	return e.startTask(ctx, user, message)
}

// startTask runs intent extraction and executes the resulting task. The
// extractor only ever sees the doctypes the user may read.
func (e *Engine) startTask(ctx context.Context, user, message string) (*Reply, error) {
	doctypes, err := e.store.ReadableDoctypes(ctx, user)
	if err != nil {
		return nil, err
	}

	task, err := e.extractor.Extract(ctx, user, message, doctypes)
	if err != nil {
		e.log.Error().Err(err).Str("user", user).Msg("intent extraction failed")
		return plainReply("I'm having trouble processing your request right now. Please try again in a moment."), nil
	}

	e.log.Debug().
		Str("user", user).
		Str("action", string(task.Action)).
		Str("doctype", task.Doctype).
		Msg("task extracted")

	return e.executeTask(ctx, user, task)
}

// executeTask dispatches one structured task after checking the user's
// permissions on its target.
func (e *Engine) executeTask(ctx context.Context, user string, task *intent.Task) (*Reply, error) {
	if task.IsClarification() {
		return &Reply{Text: task.Reply, Kind: model.KindPlain}, nil
	}

	if refusal, err := e.checkTaskPermission(ctx, user, task); err != nil {
		return nil, err
	} else if refusal != nil {
		return refusal, nil
	}

	switch task.Action {
	case intent.ActionCreate:
		return e.doCreate(ctx, user, task)
	case intent.ActionList:
		return e.doList(ctx, user, task.Doctype, task.Filters, 0)
	case intent.ActionGet:
		return e.doGet(ctx, task)
	case intent.ActionUpdate:
		return e.doUpdate(ctx, user, task)
	case intent.ActionDelete:
		return e.doDelete(ctx, task)
	case intent.ActionAssign:
		return e.doAssign(ctx, user, task)
	case intent.ActionListRoles:
		roles, err := e.store.ListRoles(ctx)
		if err != nil {
			return nil, err
		}
		return &Reply{Text: buildRoleList(roles), Kind: model.KindPlain}, nil
	case intent.ActionHelp:
		doctypes, err := e.store.ReadableDoctypes(ctx, user)
		if err != nil {
			return nil, err
		}
		return &Reply{Text: buildHelp(task.Topic, doctypes), Kind: model.KindPlain}, nil
	}
	return plainReply("%s", intent.ClarificationReply), nil
}

// checkTaskPermission returns the refusal reply for a task the user may
// not run, or nil when the task is allowed. Read access gates every
// document action; the mutating level is checked on top of it. Role
// assignment needs write access to users, and listing roles needs read
// access to roles.
func (e *Engine) checkTaskPermission(ctx context.Context, user string, task *intent.Task) (*Reply, error) {
	has := func(doctype string, perm erp.Perm) (bool, error) {
		return e.store.HasPermission(ctx, user, doctype, perm)
	}

	switch task.Action {
	case intent.ActionCreate, intent.ActionList, intent.ActionGet, intent.ActionUpdate, intent.ActionDelete:
		ok, err := has(task.Doctype, erp.PermRead)
		if err != nil {
			return nil, err
		}
		if !ok {
			return plainReply("You don't have permission to access %s documents.", task.Doctype), nil
		}

		var level erp.Perm
		var verb string
		switch task.Action {
		case intent.ActionCreate:
			level, verb = erp.PermCreate, "create"
		case intent.ActionUpdate:
			level, verb = erp.PermWrite, "update"
		case intent.ActionDelete:
			level, verb = erp.PermDelete, "delete"
		default:
			return nil, nil // read was enough for list and get
		}
		ok, err = has(task.Doctype, level)
		if err != nil {
			return nil, err
		}
		if !ok {
			return plainReply("❌ You don't have permission to %s %s documents.", verb, task.Doctype), nil
		}

	case intent.ActionAssign:
		ok, err := has("User", erp.PermWrite)
		if err != nil {
			return nil, err
		}
		if !ok {
			return plainReply("You don't have permission to assign roles to users."), nil
		}

	case intent.ActionListRoles:
		ok, err := has("Role", erp.PermRead)
		if err != nil {
			return nil, err
		}
		if !ok {
			return plainReply("❌ You don't have permission to view roles."), nil
		}
	}
	return nil, nil
}

// =============================================================================
// CREATE
// =============================================================================

func (e *Engine) doCreate(ctx context.Context, user string, task *intent.Task) (*Reply, error) {
	dt, err := e.store.GetDoctype(ctx, task.Doctype)
	if errors.Is(err, erp.ErrUnknownDoctype) {
		return plainReply("I don't know the document type %q. Try \"help\" to see what I can manage.", task.Doctype), nil
	}
	if err != nil {
		return nil, err
	}

	data := map[string]string{}
	for k, v := range task.Data {
		if _, ok := dt.Field(k); ok && v != "" {
			data[k] = v
		}
	}

	var missing []erp.FieldDef
	for _, f := range dt.RequiredFields() {
		if data[f.Name] == "" {
			missing = append(missing, f)
		}
	}

	if len(missing) == 0 {
		return e.finishCreate(ctx, user, dt, data)
	}

	state := &State{
		Phase:   PhaseCollectFields,
		Doctype: dt.Name,
		Data:    data,
		Current: missing[0],
		Pending: missing[1:],
	}
	e.states.Set(user, state)

	// The option title is rendered as-is, so the intro stays free of markdown.
	intro := fmt.Sprintf("Let's create a new %s. I need %d more detail(s).", dt.Label, len(missing))
	prompt, isOptions := buildFieldPrompt(dt, missing[0], intro)
	if isOptions {
		return &Reply{Text: prompt, Kind: model.KindOptions}, nil
	}
	return &Reply{Text: prompt, Kind: model.KindPlain}, nil
}

func (e *Engine) finishCreate(ctx context.Context, user string, dt *erp.Doctype, data map[string]string) (*Reply, error) {
	name, err := e.store.CreateDocument(ctx, dt.Name, user, data)
	if err != nil {
		return nil, err
	}
	e.states.Clear(user)
	e.log.Info().Str("user", user).Str("doctype", dt.Name).Str("name", name).Msg("document created")
	return plainReply("✅ %s **%s** created successfully.", dt.Label, name), nil
}

func (e *Engine) handleFieldCollection(ctx context.Context, user, message string, state *State) (*Reply, error) {
	dt, err := e.store.GetDoctype(ctx, state.Doctype)
	if err != nil {
		e.states.Clear(user)
		return nil, err
	}

	value, reply := resolveFieldValue(state.Current, message)
	if reply != "" {
		return plainReply("%s", reply), nil
	}
	state.Data[state.Current.Name] = value

	if len(state.Pending) == 0 {
		return e.finishCreate(ctx, user, dt, state.Data)
	}

	state.Current = state.Pending[0]
	state.Pending = state.Pending[1:]
	e.states.Set(user, state)

	prompt, isOptions := buildFieldPrompt(dt, state.Current, "")
	kind := model.KindPlain
	if isOptions {
		kind = model.KindOptions
	}
	return &Reply{Text: prompt, Kind: kind}, nil
}

// resolveFieldValue validates a collected value against the field. Select
// fields accept a 1-based number or an exact (case-insensitive) choice.
// A non-empty reply means the input was rejected.
func resolveFieldValue(field erp.FieldDef, input string) (value, reply string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Sprintf("Please provide the **%s**.", field.Label)
	}
	if field.Type != "Select" || field.Options == "" {
		return input, ""
	}

	choices := splitOptions(field.Options)
	if n, err := parseIndex(input, len(choices)); err == nil {
		return choices[n-1], ""
	}
	for _, c := range choices {
		if strings.EqualFold(c, input) {
			return c, ""
		}
	}
	return "", fmt.Sprintf("❌ %q is not a valid %s. Choose one of: %s.",
		input, field.Label, strings.Join(choices, ", "))
}

// =============================================================================
// LIST / GET
// =============================================================================

func (e *Engine) doList(ctx context.Context, user, doctype string, filters map[string]string, page int) (*Reply, error) {
	docs, total, err := e.store.ListDocuments(ctx, doctype, filters, e.pageSize, page*e.pageSize)
	if errors.Is(err, erp.ErrUnknownDoctype) {
		return plainReply("I don't know the document type %q.", doctype), nil
	}
	if err != nil {
		return nil, err
	}
	if total == 0 {
		e.states.Clear(user)
		return plainReply("No %s documents found.", doctype), nil
	}

	e.states.Set(user, &State{
		Phase:   PhaseBrowseList,
		Doctype: doctype,
		Filters: filters,
		Page:    page,
	})
	return &Reply{
		Text: buildListOptions(doctype, docs, total, page, e.pageSize),
		Kind: model.KindOptions,
	}, nil
}

func (e *Engine) handlePageNav(ctx context.Context, user, message string, state *State) (*Reply, error) {
	page := state.Page
	if strings.EqualFold(message, "next page") {
		page++
	} else if page > 0 {
		page--
	}
	return e.doList(ctx, user, state.Doctype, state.Filters, page)
}

func isPageNav(message string) bool {
	return strings.EqualFold(message, "next page") ||
		strings.EqualFold(message, "previous page")
}

func (e *Engine) doGet(ctx context.Context, task *intent.Task) (*Reply, error) {
	name := task.Filters["name"]
	if name == "" {
		return plainReply("Which %s do you mean? Give me its name.", task.Doctype), nil
	}

	dt, err := e.store.GetDoctype(ctx, task.Doctype)
	if errors.Is(err, erp.ErrUnknownDoctype) {
		return plainReply("I don't know the document type %q.", task.Doctype), nil
	}
	if err != nil {
		return nil, err
	}

	doc, err := e.store.GetDocument(ctx, task.Doctype, name)
	if errors.Is(err, erp.ErrNotFound) {
		return plainReply("❌ %s **%s** was not found.", task.Doctype, name), nil
	}
	if err != nil {
		return nil, err
	}
	return &Reply{Text: buildDocumentDetail(dt, doc), Kind: model.KindPlain}, nil
}

// =============================================================================
// UPDATE
// =============================================================================

func (e *Engine) doUpdate(ctx context.Context, user string, task *intent.Task) (*Reply, error) {
	name := task.Filters["name"]
	if name == "" {
		return plainReply("Which %s should I update? Give me its name.", task.Doctype), nil
	}

	if len(task.Data) > 0 {
		var updated []string
		for field, value := range task.Data {
			err := e.store.UpdateDocumentField(ctx, task.Doctype, name, field, value)
			switch {
			case errors.Is(err, erp.ErrNotFound):
				return plainReply("❌ %s **%s** was not found.", task.Doctype, name), nil
			case errors.Is(err, erp.ErrUnknownField):
				return plainReply("❌ %s has no field %q.", task.Doctype, field), nil
			case errors.Is(err, erp.ErrUnknownDoctype):
				return plainReply("I don't know the document type %q.", task.Doctype), nil
			case err != nil:
				return nil, err
			}
			updated = append(updated, fmt.Sprintf("**%s** → %s", field, value))
		}
		e.log.Info().Str("user", user).Str("doctype", task.Doctype).Str("name", name).Msg("document updated")
		return plainReply("✅ Updated %s **%s**: %s.", task.Doctype, name, strings.Join(updated, ", ")), nil
	}

	if task.FieldToUpdate != "" {
		dt, err := e.store.GetDoctype(ctx, task.Doctype)
		if errors.Is(err, erp.ErrUnknownDoctype) {
			return plainReply("I don't know the document type %q.", task.Doctype), nil
		}
		if err != nil {
			return nil, err
		}
		field, ok := dt.Field(task.FieldToUpdate)
		if !ok {
			return plainReply("❌ %s has no field %q.", task.Doctype, task.FieldToUpdate), nil
		}

		e.states.Set(user, &State{
			Phase:   PhaseCollectUpdateValue,
			Doctype: task.Doctype,
			DocName: name,
			Field:   field.Name,
		})
		return plainReply("What should the new **%s** of %s be?", field.Label, name), nil
	}

	return plainReply("Tell me which field to change, like \"set territory to EMEA\"."), nil
}

func (e *Engine) handleUpdateValue(ctx context.Context, user, message string, state *State) (*Reply, error) {
	e.states.Clear(user)
	err := e.store.UpdateDocumentField(ctx, state.Doctype, state.DocName, state.Field, message)
	if errors.Is(err, erp.ErrNotFound) {
		return plainReply("❌ %s **%s** was not found.", state.Doctype, state.DocName), nil
	}
	if err != nil {
		return nil, err
	}
	return plainReply("✅ Updated %s **%s**: **%s** → %s.", state.Doctype, state.DocName, state.Field, message), nil
}

// =============================================================================
// DELETE
// =============================================================================

func (e *Engine) doDelete(ctx context.Context, task *intent.Task) (*Reply, error) {
	name := task.Filters["name"]
	if name == "" {
		return plainReply("Which %s should I delete? Give me its name.", task.Doctype), nil
	}
	err := e.store.DeleteDocument(ctx, task.Doctype, name)
	if errors.Is(err, erp.ErrNotFound) {
		return plainReply("❌ %s **%s** was not found.", task.Doctype, name), nil
	}
	if err != nil {
		return nil, err
	}
	return plainReply("🗑️ %s **%s** deleted.", task.Doctype, name), nil
}

// =============================================================================
// ROLE ASSIGNMENT
// =============================================================================

func (e *Engine) doAssign(ctx context.Context, user string, task *intent.Task) (*Reply, error) {
	target := strings.TrimSpace(task.Target)
	if target == "" {
		return plainReply("Which user should I assign roles to? Give me their email."), nil
	}

	exists, err := e.store.UserExists(ctx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return plainReply("❌ User **%s** was not found.", target), nil
	}

	// Role named directly: assign without the selection prompt.
	if task.Value != "" {
		return e.assignRoles(ctx, user, target, []string{task.Value})
	}

	roles, err := e.store.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	prompt, numbered := buildRolePrompt(target, roles)
	e.states.Set(user, &State{
		Phase:         PhaseCollectRoleSelection,
		TargetUser:    target,
		NumberedRoles: numbered,
	})
	return &Reply{Text: prompt, Kind: model.KindRoleSelect}, nil
}

func (e *Engine) handleRoleSelection(ctx context.Context, user, message string, state *State) (*Reply, error) {
	input := strings.TrimSpace(message)
	lower := strings.ToLower(input)

	if isCancel(input) {
		e.states.Clear(user)
		return plainReply("Role assignment cancelled."), nil
	}

	switch lower {
	case render.AssignAllSentinel, "assign all", "assign all roles", "*", "all *":
		e.states.Clear(user)
		return e.assignRoles(ctx, user, state.TargetUser, state.NumberedRoles)
	}

	if strings.ContainsAny(input, "0123456789") {
		var selected []string
		for _, part := range strings.Split(strings.ReplaceAll(input, " ", ""), ",") {
			n, err := parseIndex(part, len(state.NumberedRoles))
			if err != nil {
				return plainReply("❌ Invalid input %q. Use numbers between 1 and %d separated by commas (e.g., 1,3,5).",
					part, len(state.NumberedRoles)), nil
			}
			selected = append(selected, state.NumberedRoles[n-1])
		}
		e.states.Clear(user)
		return e.assignRoles(ctx, user, state.TargetUser, selected)
	}

	// Try a role name match.
	var matches []string
	for _, role := range state.NumberedRoles {
		if strings.Contains(strings.ToLower(role), lower) {
			matches = append(matches, role)
		}
	}
	switch len(matches) {
	case 0:
		return plainReply("❌ Role %q not found. Use numbers (e.g., 1,3,5) or an exact role name.", input), nil
	case 1:
		e.states.Clear(user)
		return e.assignRoles(ctx, user, state.TargetUser, matches)
	default:
		return plainReply("Multiple roles match %q:\n• %s\n\nPlease be more specific or use numbers.",
			input, strings.Join(matches, "\n• ")), nil
	}
}

func (e *Engine) assignRoles(ctx context.Context, user, target string, roles []string) (*Reply, error) {
	var assigned, already []string
	for _, role := range roles {
		has, err := e.store.HasRole(ctx, target, role)
		if err != nil {
			return nil, err
		}
		if has {
			already = append(already, role)
			continue
		}
		if err := e.store.AssignRole(ctx, target, role); err != nil {
			if errors.Is(err, erp.ErrUnknownRole) {
				return plainReply("❌ Role %q does not exist.", role), nil
			}
			return nil, err
		}
		assigned = append(assigned, role)
	}

	e.log.Info().
		Str("user", user).
		Str("target", target).
		Int("assigned", len(assigned)).
		Msg("roles assigned")

	var b strings.Builder
	if len(assigned) > 0 {
		fmt.Fprintf(&b, "✅ Assigned %d role(s) to **%s**:\n• %s\n",
			len(assigned), target, strings.Join(assigned, "\n• "))
	}
	if len(already) > 0 {
		fmt.Fprintf(&b, "ℹ️ Already assigned:\n• %s\n", strings.Join(already, "\n• "))
	}
	if b.Len() == 0 {
		b.WriteString("No roles were assigned.")
	}
	return plainReply("%s", strings.TrimRight(b.String(), "\n")), nil
}

// =============================================================================
// MESSAGE CLASSIFICATION HELPERS
// =============================================================================

// newActionKeywords flag a message as starting a fresh task even while a
// flow is in progress.
var newActionKeywords = []string{
	"create", "make", "add", "new",
	"list", "show", "display", "find", "search",
	"update", "change", "modify", "edit",
	"delete", "remove",
	"assign", "give",
	"help", "start over", "restart", "main menu",
}

// isNewActionRequest reports whether the message starts a new task.
func isNewActionRequest(message string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, kw := range newActionKeywords {
		if lower == kw || strings.HasPrefix(lower, kw+" ") {
			return true
		}
	}
	return false
}

// isCancel reports whether the message abandons the current flow.
func isCancel(message string) bool {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "cancel", "quit", "exit", "stop", "nevermind":
		return true
	}
	return false
}

// parseIndex parses a 1-based index and range-checks it against max.
func parseIndex(s string, max int) (int, error) {
	s = strings.TrimSpace(s)
	n := 0
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || fmt.Sprintf("%d", n) != s {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if n < 1 || n > max {
		return 0, fmt.Errorf("out of range: %d", n)
	}
	return n, nil
}
