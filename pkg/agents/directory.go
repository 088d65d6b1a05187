// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package agents provides the agent directory: the collaborator that maps
// bearer agent identifiers to known agent identities.
package agents

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// Directory resolves agent identifiers to agent identities.
//
//go:generate mockgen -destination=mocks/mock_directory.go -package=mocks -source=directory.go Directory
type Directory interface {
	// Find returns the agent for id, or an error wrapping
	// gateway.ErrAgentNotFound when the identifier is unknown.
	Find(ctx context.Context, id string) (*gateway.Agent, error)
}

// Static is a Directory backed by a fixed set of config-declared agents.
type Static struct {
	agents map[string]gateway.Agent
}

// NewStatic builds a Static directory from the given agents.
func NewStatic(agents []gateway.Agent) *Static {
	byID := make(map[string]gateway.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}
	return &Static{agents: byID}
}

// Find implements Directory.
func (s *Static) Find(_ context.Context, id string) (*gateway.Agent, error) {
	agent, ok := s.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gateway.ErrAgentNotFound, id)
	}
	return &agent, nil
}

// Permissive is a Directory that accepts any UUID-shaped identifier.
// Intended for development deployments where agent provisioning is not wired
// up; every well-formed identifier resolves to an anonymous agent.
type Permissive struct{}

// NewPermissive returns a Permissive directory.
func NewPermissive() *Permissive {
	return &Permissive{}
}

// Find implements Directory. The identifier must parse as a UUID so that
// arbitrary strings do not silently become agent identities.
func (*Permissive) Find(_ context.Context, id string) (*gateway.Agent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid agent identifier", gateway.ErrAgentNotFound, id)
	}
	return &gateway.Agent{ID: id, Name: "agent-" + id[:8]}, nil
}
