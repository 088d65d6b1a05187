// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package builtin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/storage"
)

// NewDefaultRegistry builds the registry with the stock builtin tools:
// agent identity introspection plus agent-scoped memory CRUD backed by the
// given store.
func NewDefaultRegistry(memories storage.MemoryStore) *Registry {
	r := NewRegistry()
	r.Register(whoamiTool())
	r.Register(listMemoriesTool(memories))
	r.Register(setMemoryTool(memories))
	r.Register(deleteMemoryTool(memories))
	return r
}

func emptySchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func whoamiTool() Tool {
	return Tool{
		Name:        "whoami",
		Description: "Return the identity of the agent making this call.",
		InputSchema: emptySchema(),
		Handler: func(_ context.Context, agent *gateway.Agent, _ map[string]any) (any, error) {
			return map[string]any{
				"agent_id": agent.ID,
				"name":     agent.Name,
			}, nil
		},
	}
}

func listMemoriesTool(memories storage.MemoryStore) Tool {
	return Tool{
		Name:        "list_memories",
		Description: "List all memories stored for this agent, ordered by name.",
		InputSchema: emptySchema(),
		Handler: func(ctx context.Context, agent *gateway.Agent, _ map[string]any) (any, error) {
			entries, err := memories.List(ctx, agent.ID)
			if err != nil {
				return nil, fmt.Errorf("listing memories: %w", err)
			}
			out := make([]map[string]any, len(entries))
			for i, m := range entries {
				out[i] = map[string]any{
					"name":       m.Name,
					"value":      m.Value,
					"updated_at": m.UpdatedAt.Format(time.RFC3339),
				}
			}
			return map[string]any{"memories": out}, nil
		},
	}
}

func setMemoryTool(memories storage.MemoryStore) Tool {
	return Tool{
		Name:        "set_memory",
		Description: "Create or replace a named memory for this agent.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Name identifying the memory.",
				},
				"value": map[string]any{
					"type":        "string",
					"description": "Content to remember.",
				},
			},
			"required": []any{"name", "value"},
		},
		Handler: func(ctx context.Context, agent *gateway.Agent, args map[string]any) (any, error) {
			name, err := stringArg(args, "name")
			if err != nil {
				return nil, err
			}
			value, err := stringArg(args, "value")
			if err != nil {
				return nil, err
			}
			if err := memories.Set(ctx, agent.ID, name, value); err != nil {
				return nil, fmt.Errorf("storing memory %q: %w", name, err)
			}
			return fmt.Sprintf("memory %q saved", name), nil
		},
	}
}

func deleteMemoryTool(memories storage.MemoryStore) Tool {
	return Tool{
		Name:        "delete_memory",
		Description: "Delete a named memory for this agent.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Name of the memory to delete.",
				},
			},
			"required": []any{"name"},
		},
		Handler: func(ctx context.Context, agent *gateway.Agent, args map[string]any) (any, error) {
			name, err := stringArg(args, "name")
			if err != nil {
				return nil, err
			}
			if err := memories.Delete(ctx, agent.ID, name); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return nil, fmt.Errorf("no memory named %q", name)
				}
				return nil, fmt.Errorf("deleting memory %q: %w", name, err)
			}
			return fmt.Sprintf("memory %q deleted", name), nil
		},
	}
}
