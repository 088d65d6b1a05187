// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package router implements the tool execution router: given a canonical
// tool call and an acting agent identity, it decides whether the tool is a
// host builtin or must be delegated to a downstream MCP server, executes it,
// and returns a canonical result.
package router

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

//go:generate mockgen -destination=mocks/mock_router.go -package=mocks -source=router.go Router

// Router executes canonical tool calls.
type Router interface {
	// Execute runs the call on behalf of agent and returns a canonical
	// result. Tool-level failures (builtin handler errors, downstream
	// connect/timeout/protocol errors) are data: they come back as a result
	// with IsError set, never as a non-nil error. Only structural faults,
	// such as a tool name that resolves to no provider, return an error.
	Execute(ctx context.Context, agent *gateway.Agent, call *gateway.ToolCall) (*gateway.ToolCallResult, error)
}

// NormalizeContent coerces any backend result value into an ordered content
// sequence. An already-ordered sequence passes through unchanged, so the
// function is idempotent; a scalar or object wraps as a single text block
// containing its serialized form.
func NormalizeContent(v any) []gateway.Content {
	switch val := v.(type) {
	case nil:
		return []gateway.Content{}
	case []gateway.Content:
		return val
	case gateway.Content:
		return []gateway.Content{val}
	case string:
		return []gateway.Content{{Type: "text", Text: val}}
	default:
		data, err := json.Marshal(val)
		if err != nil {
			// Unserializable values fall back to their Go formatting.
			return []gateway.Content{{Type: "text", Text: fmt.Sprintf("%v", val)}}
		}
		return []gateway.Content{{Type: "text", Text: string(data)}}
	}
}

// errorResult builds a canonical caller-visible failure.
func errorResult(message string) *gateway.ToolCallResult {
	return &gateway.ToolCallResult{
		Content: []gateway.Content{{Type: "text", Text: message}},
		IsError: true,
		Error:   message,
	}
}
