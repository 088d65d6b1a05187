// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package storage provides domain-specific persistence interfaces for the gateway.
package storage

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mocks/mock_memory_store.go -package=mocks -source=interfaces.go MemoryStore

// Memory is one agent-scoped memory entry, written and read by the builtin
// memory tools.
type Memory struct {
	// Name identifies the memory within the agent's scope.
	Name string
	// Value is the memory content.
	Value string
	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time
}

// MemoryStore manages agent-scoped memories.
type MemoryStore interface {
	// Set creates or replaces the named memory for the given agent.
	Set(ctx context.Context, agentID, name, value string) error
	// Get retrieves one memory by name. Returns ErrNotFound when absent.
	Get(ctx context.Context, agentID, name string) (Memory, error)
	// List returns all memories for the given agent, ordered by name.
	List(ctx context.Context, agentID string) ([]Memory, error)
	// Delete removes the named memory. Returns ErrNotFound when absent.
	Delete(ctx context.Context, agentID, name string) error
	// Close releases any resources held by the store.
	Close() error
}
