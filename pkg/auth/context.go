// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package auth authenticates agent clients at the HTTP boundary.
//
// The gateway's inbound authentication model is deliberately narrow: the
// bearer token IS the agent identifier. Token issuance, rotation and the
// user/organization model live outside this module; this package only parses
// the Authorization header, resolves the identifier through the agent
// directory, and makes the resolved identity available on the request
// context.
package auth

import (
	"context"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// agentContextKey is the key used to store the resolved Agent in the request
// context. An empty struct type prevents collisions with other context keys.
type agentContextKey struct{}

// WithAgent stores a resolved agent identity in the context.
// If agent is nil, the original context is returned unchanged.
func WithAgent(ctx context.Context, agent *gateway.Agent) context.Context {
	if agent == nil {
		return ctx
	}
	return context.WithValue(ctx, agentContextKey{}, agent)
}

// AgentFromContext retrieves the resolved agent identity from the context.
// Returns the agent and true if present, nil and false otherwise.
func AgentFromContext(ctx context.Context) (*gateway.Agent, bool) {
	agent, ok := ctx.Value(agentContextKey{}).(*gateway.Agent)
	return agent, ok
}
