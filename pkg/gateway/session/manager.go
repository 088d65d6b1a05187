// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/logger"
)

const (
	// DefaultTTL is how long a session may sit idle before the sweeper
	// removes it.
	DefaultTTL = 30 * time.Minute

	// DefaultSweepInterval is the cadence of the background expiry sweep.
	DefaultSweepInterval = 5 * time.Minute
)

// Factory builds the protocol-server/transport pair for a new session.
// pkg/gateway/server provides the implementation; the indirection keeps this
// package free of MCP SDK types.
//
//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=manager.go Factory
type Factory interface {
	// Build constructs the transport handler for a session with the given
	// pre-minted identifier, bound to the resolved agent identity.
	Build(ctx context.Context, id string, agent *gateway.Agent) (http.Handler, error)
}

// Options tune the manager. The zero value yields the defaults.
type Options struct {
	// TTL is the idle lifetime of a session. Zero means DefaultTTL.
	TTL time.Duration

	// SweepInterval is the background sweep cadence. Zero means
	// DefaultSweepInterval.
	SweepInterval time.Duration

	// StrictValidation rejects non-initialize requests carrying an unknown
	// session identifier instead of transparently recreating the session.
	// Off by default: auto-recovery keeps long-lived clients working across
	// session-timeout races at the cost of masking genuine client bugs.
	StrictValidation bool

	// Observer, when non-nil, receives session lifecycle counts.
	Observer Observer
}

// Observer receives session lifecycle notifications. pkg/telemetry implements
// it; a nil observer disables reporting.
type Observer interface {
	SessionCreated()
	SessionsExpired(n int)
}

// Manager exclusively owns the session map. No other component reaches into
// session storage; everything goes through Resolve, Touch and SweepExpired.
// All methods are safe for concurrent use.
type Manager struct {
	factory Factory
	opts    Options

	mu       sync.RWMutex
	sessions map[string]*Session

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager and starts the background sweeper.
// Call Stop to terminate the sweeper.
func NewManager(factory Factory, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	m := &Manager{
		factory:  factory,
		opts:     opts,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
	}
	go m.sweepRoutine()
	return m
}

// NewID mints a server-generated session identifier.
func NewID() string {
	return fmt.Sprintf("session-%d-%s", time.Now().UnixMilli(), uuid.NewString())
}

// Resolve returns the session for id, creating one when necessary.
//
// A live id is touched and returned as not new. An empty or unknown id mints
// a fresh session: the identifier is generated when the client supplied none
// and adopted verbatim otherwise, the protocol pair is built via the factory,
// and the session is stored before Resolve returns. Storing first is a hard
// ordering requirement: a post-initialize notification racing right behind
// the initialize must find the session already present.
//
// When the request is not an initialize, an unknown id still auto-creates a
// session under that id unless strict validation is enabled, in which case
// gateway.ErrSessionNotFound is returned.
func (m *Manager) Resolve(ctx context.Context, id string, agent *gateway.Agent, initialize bool) (*Session, bool, error) {
	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			s.Touch()
			return s, false, nil
		}
		if !initialize && m.opts.StrictValidation {
			return nil, false, fmt.Errorf("%w: %s", gateway.ErrSessionNotFound, id)
		}
		if !initialize {
			logger.Debugw("Recreating session for unknown identifier", "session", id, "agent_id", agent.ID)
		}
	}

	newID := id
	if newID == "" {
		newID = NewID()
	}

	// Agent identity resolution and transport construction happen outside
	// the lock; session objects are cheap to discard if another request
	// wins the store race.
	handler, err := m.factory.Build(ctx, newID, agent)
	if err != nil {
		return nil, false, fmt.Errorf("building session %s: %w", newID, err)
	}
	s := newSession(newID, agent.ID, handler)

	m.mu.Lock()
	if existing, ok := m.sessions[newID]; ok {
		// A concurrent Resolve stored first. Keep its pair so the identifier
		// stays bound to one protocol-server/transport pair.
		m.mu.Unlock()
		existing.Touch()
		return existing, false, nil
	}
	m.sessions[newID] = s
	m.mu.Unlock()

	if m.opts.Observer != nil {
		m.opts.Observer.SessionCreated()
	}
	logger.Debugw("Created session", "session", newID, "agent_id", agent.ID)
	return s, true, nil
}

// Touch refreshes the last-access timestamp of a live session. Returns false
// when the identifier is unknown.
func (m *Manager) Touch(id string) bool {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	s.Touch()
	return true
}

// Get returns the session for id without touching it.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepExpired removes every session idle past the TTL as of now and returns
// how many were removed.
func (m *Manager) SweepExpired(now time.Time) int {
	cutoff := now.Add(-m.opts.TTL)

	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if s.UpdatedAt().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		logger.Infow("Swept expired sessions", "count", len(expired))
		if m.opts.Observer != nil {
			m.opts.Observer.SessionsExpired(len(expired))
		}
	}
	return len(expired)
}

// Clear removes all sessions. Intended for tests exercising expiry recovery.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
}

// Stop terminates the background sweeper. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Manager) sweepRoutine() {
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.SweepExpired(time.Now())
		case <-m.stopCh:
			return
		}
	}
}
