// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"testing"
	"time"
)

func TestStateStoreExpiry(t *testing.T) {
	s := NewStateStore(30 * time.Millisecond)

	s.Set("jane", &State{Phase: PhaseCollectFields})
	if s.Get("jane") == nil {
		t.Fatal("state missing immediately after Set")
	}

	time.Sleep(50 * time.Millisecond)
	if s.Get("jane") != nil {
		t.Error("state should have expired")
	}
}

func TestStateStoreClearAndIsolation(t *testing.T) {
	s := NewStateStore(time.Minute)

	s.Set("jane", &State{Phase: PhaseCollectFields})
	s.Set("bob", &State{Phase: PhaseBrowseList})

	s.Clear("jane")
	if s.Get("jane") != nil {
		t.Error("jane's state should be cleared")
	}
	if st := s.Get("bob"); st == nil || st.Phase != PhaseBrowseList {
		t.Error("bob's state should be untouched")
	}
}

func TestStateStoreSweep(t *testing.T) {
	s := NewStateStore(10 * time.Millisecond)
	s.Set("jane", &State{})
	time.Sleep(20 * time.Millisecond)
	s.Sweep()

	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	if n != 0 {
		t.Errorf("entries after sweep = %d, want 0", n)
	}
}
