// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"sync"
	"time"

	"github.com/nexhq/nexchat/internal/erp"
)

// =============================================================================
// CONVERSATION STATE
// =============================================================================

// Phase identifies what an in-progress conversation is waiting for.
type Phase string

const (
	// PhaseCollectFields waits on the value for Current, then works
	// through Pending.
	PhaseCollectFields Phase = "collect_fields"
	// PhaseCollectRoleSelection waits on numbers, a role name, an
	// assign-all sentinel, or cancel.
	PhaseCollectRoleSelection Phase = "collect_role_selection"
	// PhaseCollectUpdateValue waits on the new value for Field.
	PhaseCollectUpdateValue Phase = "collect_update_value"
	// PhaseBrowseList remembers a paginated listing so "next page" works.
	PhaseBrowseList Phase = "browse_list"
)

// State is the per-user flow state between messages.
type State struct {
	Phase   Phase
	Doctype string

	// Create flow
	Data    map[string]string
	Current erp.FieldDef
	Pending []erp.FieldDef

	// Update flow
	DocName string
	Field   string

	// Role assignment flow
	TargetUser    string
	NumberedRoles []string

	// List browsing
	Filters map[string]string
	Page    int
}

// =============================================================================
// STATE STORE
// =============================================================================

// StateStore holds conversation state per user with a TTL.
type StateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]stateEntry
}

type stateEntry struct {
	state   *State
	expires time.Time
}

// NewStateStore creates a store whose entries expire after ttl.
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{
		ttl:     ttl,
		entries: make(map[string]stateEntry),
	}
}

// Get returns the live state for a user, or nil when none exists or it
// has expired.
func (s *StateStore) Get(user string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[user]
	if !ok {
		return nil
	}
	if time.Now().After(e.expires) {
		delete(s.entries, user)
		return nil
	}
	return e.state
}

// Set stores state for a user, resetting its TTL.
func (s *StateStore) Set(user string, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[user] = stateEntry{state: st, expires: time.Now().Add(s.ttl)}
}

// Clear drops the state for a user.
func (s *StateStore) Clear(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, user)
}

// Sweep removes expired entries. Called periodically by the owner.
func (s *StateStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for user, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, user)
		}
	}
}
