// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexhq/nexchat/internal/engine"
	"github.com/nexhq/nexchat/internal/erp"
)

// GuestUser is reported by logged_user when no session exists.
const GuestUser = "Guest"

// Server wires the HTTP surface to the store and engine.
type Server struct {
	store    *erp.Store
	engine   *engine.Engine
	sessions *SessionStore
	log      zerolog.Logger
}

// New creates a server.
func New(store *erp.Store, eng *engine.Engine, sessions *SessionStore, log zerolog.Logger) *Server {
	return &Server{
		store:    store,
		engine:   eng,
		sessions: sessions,
		log:      log,
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/method", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/nexchat.api.logged_user", s.handleLoggedUser)
		r.Post("/nexchat.api.process_message", s.handleProcessMessage)
	})

	return r
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeMessage wraps a result in the {"message": ...} envelope.
func writeMessage(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"message": v})
}

// writeError sends a failure with the text the client surfaces.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Usr string `json:"usr"`
		Pwd string `json:"pwd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login request")
		return
	}

	user, err := s.store.GetUser(r.Context(), req.Usr)
	if err != nil || !user.Enabled {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Pwd)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess := s.sessions.Create(user.Username)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.Expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.log.Info().Str("user", user.Username).Msg("login")
	writeMessage(w, "Logged In")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := s.session(r); sess != nil {
		s.sessions.Delete(sess.Token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:    SessionCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
	writeMessage(w, "Logged Out")
}

func (s *Server) handleLoggedUser(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if sess == nil {
		writeMessage(w, GuestUser)
		return
	}
	writeMessage(w, sess.Username)
}

func (s *Server) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "session expired, please log in again")
		return
	}
	if !sess.Allow() {
		writeError(w, http.StatusTooManyRequests, "you're sending messages too quickly, please slow down")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	reply, err := s.engine.ProcessMessage(r.Context(), sess.Username, req.Message)
	if err != nil {
		s.log.Error().Err(err).Str("user", sess.Username).Msg("process_message failed")
		writeError(w, http.StatusInternalServerError,
			"Sorry, I encountered an error processing your request. Please try again.")
		return
	}

	writeMessage(w, map[string]string{
		"response": reply.Text,
		"kind":     string(reply.Kind),
	})
}

// session resolves the request's session cookie, or nil.
func (s *Server) session(r *http.Request) *Session {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	return s.sessions.Lookup(cookie.Value)
}

// =============================================================================
// USER PROVISIONING
// =============================================================================

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
