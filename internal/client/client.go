// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client provides the HTTP client for the nexchat assistant API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the assistant client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeAuth
	ErrTypeServer
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrNotLoggedIn  = &ClientError{Type: ErrTypeAuth, Message: "not logged in"}
	ErrGuestSession = &ClientError{Type: ErrTypeAuth, Message: "guest session"}
)

// DefaultErrorText is shown when a failure response carries no message.
const DefaultErrorText = "server error"

// =============================================================================
// WIRE TYPES
// =============================================================================

// ProcedureProcessMessage is the fixed server procedure the chat calls.
const ProcedureProcessMessage = "nexchat.api.process_message"

// Reply is the decoded payload of a successful process_message call.
type Reply struct {
	// Response is the assistant's text.
	Response string `json:"response"`
	// Kind is the explicit render tag. Empty for legacy servers, in which
	// case the client classifies by content.
	Kind string `json:"kind,omitempty"`
}

// envelope wraps every successful method response.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

// failureBody is the optional error shape of a non-200 response.
type failureBody struct {
	Message string `json:"message"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the assistant service. Session state lives in the
// cookie jar, so a single Client carries one login.
//
// The Client never retries and sets no request timeout of its own; one
// submission maps to exactly one HTTP exchange.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given base URL.
func New(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar},
	}
}

// NewWithHTTPClient creates a client using a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if hc.Jar == nil {
		hc.Jar, _ = cookiejar.New(nil)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
	}
}

// methodURL builds the URL for a server procedure.
func (c *Client) methodURL(procedure string) string {
	return c.baseURL + "/api/method/" + procedure
}

// =============================================================================
// SESSION
// =============================================================================

// Login authenticates and stores the session cookie in the jar.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload := map[string]string{"usr": username, "pwd": password}
	var ignored json.RawMessage
	err := c.call(ctx, "login", payload, &ignored)
	var ce *ClientError
	if errors.As(err, &ce) && ce.Type == ErrTypeServer {
		return &ClientError{Type: ErrTypeAuth, Message: ce.Message, Cause: ce.Cause}
	}
	return err
}

// LoggedUser returns the username of the current session. A guest or
// missing session returns ErrGuestSession so callers can skip starting
// the chat entirely.
func (c *Client) LoggedUser(ctx context.Context) (string, error) {
	var user string
	if err := c.call(ctx, "nexchat.api.logged_user", nil, &user); err != nil {
		var ce *ClientError
		if errors.As(err, &ce) && ce.Type == ErrTypeServer {
			return "", ErrNotLoggedIn
		}
		return "", err
	}
	if user == "" || strings.EqualFold(user, "guest") {
		return "", ErrGuestSession
	}
	return user, nil
}

// =============================================================================
// MESSAGING
// =============================================================================

// ProcessMessage sends one user message and returns the decoded reply.
// Exactly one HTTP call per invocation; the caller owns the single
// in-flight guarantee.
func (c *Client) ProcessMessage(ctx context.Context, message string) (*Reply, error) {
	payload := map[string]string{"message": message}
	var reply Reply
	if err := c.call(ctx, ProcedureProcessMessage, payload, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// call issues one POST to a server procedure and decodes the enveloped
// result into out.
func (c *Client) call(ctx context.Context, procedure string, args any, out any) error {
	var body io.Reader
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return &ClientError{Type: ErrTypeUnknown, Message: "failed to encode request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(procedure), body)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to build request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to reach server", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return &ClientError{Type: ErrTypeServer, Message: failureText(data)}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed response envelope", Cause: err}
	}
	if out != nil && len(env.Message) > 0 {
		if err := json.Unmarshal(env.Message, out); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed response payload", Cause: err}
		}
	}
	return nil
}

// failureText extracts the server-supplied error message from a failure
// body, falling back to the fixed default.
func failureText(data []byte) string {
	var fb failureBody
	if err := json.Unmarshal(data, &fb); err == nil && fb.Message != "" {
		return fb.Message
	}
	return DefaultErrorText
}
