// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
)

// This file contains shared domain types used across multiple gateway
// subpackages. These are core domain concepts that cross bounded contexts.

// ToolCall is the canonical, vendor-neutral representation of a tool
// invocation. Every vendor adapter produces it and every execution backend
// consumes it.
type ToolCall struct {
	// ID correlates the call with its result. Caller-supplied when the LLM
	// vendor emits one, gateway-generated otherwise.
	ID string

	// Name is the fully-qualified tool name: <namespace>__<tool>.
	Name string

	// Arguments is the raw argument mapping, unvalidated at this layer.
	// Always non-nil once canonical; an argument-free call carries an empty map.
	Arguments map[string]any
}

// Content represents one MCP content block (text, image, audio).
type Content struct {
	// Type indicates the content type: "text", "image" or "audio".
	Type string

	// Text is the content text (for text blocks).
	Text string

	// Data is the base64-encoded payload (for image/audio blocks).
	Data string

	// MimeType is the MIME type (for image/audio blocks).
	MimeType string
}

// ToolCallResult is the canonical result of a tool execution.
// It must be producible from any backend's native result shape.
type ToolCallResult struct {
	// Content is the ordered sequence of content blocks, never a bare value.
	Content []Content

	// StructuredContent is structured output when the backend provides it.
	StructuredContent map[string]any

	// IsError signals a caller-visible tool failure, not a transport failure.
	IsError bool

	// Error carries the failure message when IsError is set.
	Error string

	// Meta contains protocol-level metadata from the backend (_meta field).
	// Per MCP specification, this field is optional and may be nil.
	Meta map[string]any
}

// Tool represents one entry of an agent's tool catalog.
type Tool struct {
	// Name is the fully-qualified tool name presented to the agent.
	Name string

	// Description describes what the tool does.
	Description string

	// InputSchema is the JSON Schema for tool parameters, passed through
	// opaquely from the providing backend or builtin.
	InputSchema map[string]any
}

// Agent is the identity on whose behalf tool calls are made.
// It maps 1:1 to a bearer token value at the HTTP boundary.
type Agent struct {
	// ID is the agent identifier carried in the bearer token.
	ID string

	// Name is the human-readable agent name.
	Name string
}

// BackendTarget identifies a downstream MCP server and provides the
// information needed to forward requests to it.
type BackendTarget struct {
	// Name is the backend name; it doubles as the tool-name namespace.
	Name string

	// BaseURL is the base URL for the backend's MCP endpoint.
	BaseURL string

	// TransportType specifies the MCP transport protocol.
	// Supported: "streamable-http", "sse".
	TransportType string

	// Auth is the authentication configuration for this backend.
	// If nil, the backend requires no authentication.
	Auth *BackendAuth
}

// BackendAuth describes how the gateway authenticates to a backend.
type BackendAuth struct {
	// Type is the strategy name. Supported: "header".
	Type string

	// HeaderName and HeaderValue configure the "header" strategy: the value
	// is injected verbatim on every outgoing request.
	HeaderName  string
	HeaderValue string
}

// BackendClient abstracts MCP protocol communication with downstream servers.
// Implementations handle the protocol-level details of calling backend MCP
// servers across the supported transport types.
//
//go:generate mockgen -destination=mocks/mock_backend_client.go -package=mocks -source=types.go BackendClient
type BackendClient interface {
	// CallTool invokes a tool on the backend MCP server. toolName is the
	// backend-local name (namespace already stripped). The meta parameter
	// carries _meta fields from the client request to forward to the backend.
	CallTool(
		ctx context.Context, target *BackendTarget, toolName string, arguments map[string]any, meta map[string]any,
	) (*ToolCallResult, error)

	// ListTools queries a backend for the tools it exposes, with
	// backend-local names.
	ListTools(ctx context.Context, target *BackendTarget) ([]Tool, error)
}

// CredentialResolver selects the execution credential bound to an
// agent/backend pair. Credential storage and issuance live outside this
// module; the static resolver in pkg/downstream covers config-declared
// backends.
type CredentialResolver interface {
	// Resolve returns the auth configuration to use when the given agent's
	// calls are forwarded to target. A nil result means no authentication.
	Resolve(ctx context.Context, agentID string, target *BackendTarget) (*BackendAuth, error)
}
