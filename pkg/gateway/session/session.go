// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session owns the gateway's session state: the mapping from session
// identifier to the protocol-server/transport pair that serves it, with a
// bounded idle lifetime.
package session

import (
	"net/http"
	"sync"
	"time"
)

// Session binds a client-visible identifier to the protocol-handling pair
// constructed for it. Once stored, the identifier maps to the same pair for
// the session's whole lifetime; the manager never swaps the handler out from
// under a live session.
type Session struct {
	id      string
	agentID string

	// handler is the streamable HTTP transport wrapping the session's MCP
	// protocol server. All protocol requests for this session flow through it.
	handler http.Handler

	created time.Time

	mu      sync.RWMutex
	updated time.Time
}

func newSession(id, agentID string, handler http.Handler) *Session {
	now := time.Now()
	return &Session{
		id:      id,
		agentID: agentID,
		handler: handler,
		created: now,
		updated: now,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AgentID returns the identifier of the agent the session was minted for.
func (s *Session) AgentID() string { return s.agentID }

// Handler returns the transport that serves this session's protocol requests.
func (s *Session) Handler() http.Handler { return s.handler }

// CreatedAt returns the creation time of the session.
func (s *Session) CreatedAt() time.Time { return s.created }

// UpdatedAt returns the time of the session's last use.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// Touch refreshes the session's last-access timestamp.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = time.Now()
}
