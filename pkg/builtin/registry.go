// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package builtin implements the host-builtin tools: tools in the
// gateway.BuiltinNamespace executed in-process against the calling agent's
// own identity, with no network hop and no downstream credential resolution.
package builtin

import (
	"context"
	"fmt"
	"sort"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// Handler executes one builtin tool for the given agent. The returned value
// may be any JSON-serializable shape; the router normalizes it into an
// ordered content sequence. A returned error becomes a caller-visible
// canonical error result, never a transport fault.
type Handler func(ctx context.Context, agent *gateway.Agent, args map[string]any) (any, error)

// Tool is one registered builtin tool.
type Tool struct {
	// Name is the bare tool name, without the namespace prefix.
	Name string

	// Description is shown to agents in the tool catalog.
	Description string

	// InputSchema is the JSON Schema for the tool's arguments.
	InputSchema map[string]any

	// Handler executes the tool.
	Handler Handler
}

// Registry holds the builtin tools, keyed by bare name. It is populated at
// construction and read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry, replacing any previous tool with the
// same name. Call during construction only.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name] = t
}

// Tools returns the catalog entries for every registered tool, with
// fully-qualified names, ordered by name.
func (r *Registry) Tools() []gateway.Tool {
	out := make([]gateway.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, gateway.Tool{
			Name:        gateway.QualifyToolName(gateway.BuiltinNamespace, t.Name),
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute runs the named builtin tool. name is the bare tool name; an unknown
// name returns an error wrapping gateway.ErrToolNotFound.
func (r *Registry) Execute(ctx context.Context, agent *gateway.Agent, name string, args map[string]any) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: builtin %s", gateway.ErrToolNotFound, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	return t.Handler(ctx, agent, args)
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required argument %q", gateway.ErrInvalidInput, key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: argument %q must be a non-empty string", gateway.ErrInvalidInput, key)
	}
	return s, nil
}
