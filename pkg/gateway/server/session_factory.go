// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/archestra-ai/archestra/pkg/catalog"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/gateway/router"
	"github.com/archestra-ai/archestra/pkg/gateway/session"
	"github.com/archestra-ai/archestra/pkg/logger"
)

// SessionFactory builds one MCP protocol server per session. The tool
// catalog is snapshotted at build time, so a session's tool list is stable
// for its whole lifetime.
type SessionFactory struct {
	catalog      *catalog.Catalog
	router       router.Router
	endpointPath string
	version      string
}

var _ session.Factory = (*SessionFactory)(nil)

// NewSessionFactory creates a factory producing per-session transports.
func NewSessionFactory(cat *catalog.Catalog, rt router.Router, endpointPath, version string) *SessionFactory {
	return &SessionFactory{
		catalog:      cat,
		router:       rt,
		endpointPath: endpointPath,
		version:      version,
	}
}

// Build implements session.Factory. It snapshots the agent's tool catalog,
// registers every tool on a fresh MCP server, and wraps the server in a
// streamable HTTP transport bound to the pre-minted session identifier.
func (f *SessionFactory) Build(ctx context.Context, id string, agent *gateway.Agent) (http.Handler, error) {
	tools, err := f.catalog.ListTools(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("building tool catalog for agent %s: %w", agent.ID, err)
	}

	hooks := &server.Hooks{}
	hooks.AddOnError(func(_ context.Context, rpcID any, method mcp.MCPMethod, _ any, err error) {
		logger.Warnw("MCP request failed",
			"session_id", id, "agent_id", agent.ID,
			"method", method, "rpc_id", rpcID, "error", err)
	})

	mcpServer := server.NewMCPServer(
		gateway.ServerName,
		f.version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)

	for _, tool := range tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encoding input schema of tool %s: %w", tool.Name, err)
		}
		mcpServer.AddTool(
			mcp.NewToolWithRawSchema(tool.Name, tool.Description, schema),
			f.toolHandler(agent, tool.Name),
		)
	}

	logger.Debugw("Built session transport",
		"session_id", id, "agent_id", agent.ID, "tool_count", len(tools))

	return server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath(f.endpointPath),
		server.WithSessionIdManager(newFixedSessionID(id)),
	), nil
}

// toolHandler adapts one catalog entry to the SDK handler signature. The
// router's error contract maps directly onto the SDK's: a structural fault
// returns an error and surfaces as a protocol-level internal error, while a
// tool failure comes back as a result with the error flag set.
func (f *SessionFactory) toolHandler(
	agent *gateway.Agent, toolName string,
) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := request.Params.Arguments.(map[string]any)
		if !ok {
			if request.Params.Arguments != nil {
				return mcp.NewToolResultError(
					fmt.Sprintf("arguments must be an object, got %T", request.Params.Arguments)), nil
			}
			args = map[string]any{}
		}

		call := &gateway.ToolCall{
			ID:        callID(request),
			Name:      toolName,
			Arguments: args,
		}

		result, err := f.router.Execute(ctx, agent, call)
		if err != nil {
			return nil, err
		}
		return toMCPResult(result), nil
	}
}

// callID picks a correlation id for the invocation: the client's progress
// token when one is present, a generated id otherwise.
func callID(request mcp.CallToolRequest) string {
	if request.Params.Meta != nil && request.Params.Meta.ProgressToken != nil {
		return fmt.Sprintf("%v", request.Params.Meta.ProgressToken)
	}
	return uuid.NewString()
}

// toMCPResult converts a canonical result to the SDK result shape.
func toMCPResult(result *gateway.ToolCallResult) *mcp.CallToolResult {
	content := make([]mcp.Content, len(result.Content))
	for i, block := range result.Content {
		content[i] = toMCPContent(block)
	}

	return &mcp.CallToolResult{
		Result: mcp.Result{
			Meta: toMCPMeta(result.Meta),
		},
		Content:           content,
		StructuredContent: result.StructuredContent,
		IsError:           result.IsError,
	}
}

func toMCPContent(content gateway.Content) mcp.Content {
	switch content.Type {
	case "image":
		return mcp.NewImageContent(content.Data, content.MimeType)
	case "audio":
		return mcp.NewAudioContent(content.Data, content.MimeType)
	default:
		return mcp.NewTextContent(content.Text)
	}
}

func toMCPMeta(meta map[string]any) *mcp.Meta {
	if len(meta) == 0 {
		return nil
	}
	result := &mcp.Meta{AdditionalFields: make(map[string]any)}
	for k, v := range meta {
		if k == "progressToken" {
			result.ProgressToken = v
			continue
		}
		result.AdditionalFields[k] = v
	}
	return result
}
