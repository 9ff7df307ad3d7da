// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "sid"

// Session is one logged-in user.
type Session struct {
	Token    string
	Username string
	Expires  time.Time

	// limiter throttles process_message calls for this session.
	limiter *rate.Limiter
}

// SessionStore holds active sessions in memory.
type SessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	perMin   int
	sessions map[string]*Session
}

// NewSessionStore creates a store. ttl bounds session lifetime and
// perMinute is the message rate granted to each session.
func NewSessionStore(ttl time.Duration, perMinute int) *SessionStore {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	if perMinute <= 0 {
		perMinute = 30
	}
	return &SessionStore{
		ttl:      ttl,
		perMin:   perMinute,
		sessions: make(map[string]*Session),
	}
}

// Create issues a new session for a user.
func (s *SessionStore) Create(username string) *Session {
	sess := &Session{
		Token:    uuid.NewString(),
		Username: username,
		Expires:  time.Now().Add(s.ttl),
		limiter:  rate.NewLimiter(rate.Limit(float64(s.perMin)/60.0), s.perMin),
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return sess
}

// Lookup returns the live session for a token, or nil.
func (s *SessionStore) Lookup(token string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil
	}
	if time.Now().After(sess.Expires) {
		delete(s.sessions, token)
		return nil
	}
	return sess
}

// Delete removes a session.
func (s *SessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep removes expired sessions.
func (s *SessionStore) Sweep() {
	now := time.Now()
	s.mu.Lock()
	for token, sess := range s.sessions {
		if now.After(sess.Expires) {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
}

// Allow reports whether the session may send another message now.
func (sess *Session) Allow() bool {
	return sess.limiter.Allow()
}
