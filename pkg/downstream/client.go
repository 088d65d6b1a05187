// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package downstream implements the MCP client used to reach downstream tool
// providers, built on the mark3labs/mcp-go SDK. It supports the
// streamable-http and sse transports and converts every backend response into
// the gateway's canonical shapes.
package downstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/logger"
)

const (
	// httpTimeout bounds every backend HTTP exchange. The gateway imposes no
	// additional per-call timeout beyond this transport-level one.
	httpTimeout = 30 * time.Second

	// maxResponseSize caps backend response bodies so a misbehaving backend
	// cannot exhaust gateway memory during JSON decoding. 100 MB.
	maxResponseSize = 100 * 1024 * 1024
)

// Client implements gateway.BackendClient over HTTP-based MCP transports.
// Each call creates a short-lived SDK client for the target, performs the
// initialize handshake, executes, and closes.
type Client struct {
	// clientFactory creates SDK clients for backends. Overridable in tests.
	clientFactory func(ctx context.Context, target *gateway.BackendTarget) (*client.Client, error)
}

var _ gateway.BackendClient = (*Client)(nil)

// NewClient creates a downstream MCP client.
func NewClient() *Client {
	c := &Client{}
	c.clientFactory = c.newSDKClient
	return c
}

// headerRoundTripper injects the backend credential header on every request.
type headerRoundTripper struct {
	base  http.RoundTripper
	name  string
	value string
}

// RoundTrip implements http.RoundTripper.
func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(h.name, h.value)
	return h.base.RoundTrip(req)
}

// roundTripperFunc is a function adapter for http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// newSDKClient builds a started SDK client for the target, with the
// credential header and response size cap wired into the HTTP transport.
func (*Client) newSDKClient(ctx context.Context, target *gateway.BackendTarget) (*client.Client, error) {
	base := http.DefaultTransport
	if target.Auth != nil {
		if target.Auth.Type != "header" {
			return nil, fmt.Errorf("%w: unsupported backend auth type %q", gateway.ErrInvalidConfig, target.Auth.Type)
		}
		base = &headerRoundTripper{base: base, name: target.Auth.HeaderName, value: target.Auth.HeaderValue}
	}

	sizeLimited := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		resp.Body = struct {
			io.Reader
			io.Closer
		}{
			Reader: io.LimitReader(resp.Body, maxResponseSize),
			Closer: resp.Body,
		}
		return resp, nil
	})

	httpClient := &http.Client{
		Transport: sizeLimited,
		Timeout:   httpTimeout,
	}

	var c *client.Client
	var err error
	switch target.TransportType {
	case "streamable-http":
		c, err = client.NewStreamableHttpClient(
			target.BaseURL,
			transport.WithHTTPTimeout(httpTimeout),
			transport.WithHTTPBasicClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("creating streamable-http client: %w", err)
		}
	case "sse":
		c, err = client.NewSSEMCPClient(
			target.BaseURL,
			transport.WithHTTPClient(httpClient),
		)
		if err != nil {
			return nil, fmt.Errorf("creating sse client: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: transport %q (supported: streamable-http, sse)",
			gateway.ErrInvalidConfig, target.TransportType)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting client connection: %w", err)
	}
	return c, nil
}

// initialize performs the MCP handshake with the backend.
func initialize(ctx context.Context, c *client.Client) error {
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    gateway.ServerName,
				Version: "0.1.0",
			},
		},
	})
	return err
}

// CallTool invokes a tool on the backend. toolName is the backend-local name;
// namespace stripping happens in the router before this call.
func (cl *Client) CallTool(
	ctx context.Context, target *gateway.BackendTarget, toolName string, arguments map[string]any, meta map[string]any,
) (*gateway.ToolCallResult, error) {
	logger.Debugw("Calling downstream tool", "backend", target.Name, "tool", toolName)

	c, err := cl.clientFactory(ctx, target)
	if err != nil {
		return nil, wrapBackendError(err, target.Name, "create client")
	}
	defer closeClient(c)

	if err := initialize(ctx, c); err != nil {
		return nil, wrapBackendError(err, target.Name, "initialize")
	}

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: arguments,
			Meta:      toMCPMeta(meta),
		},
	})
	if err != nil {
		return nil, wrapBackendError(err, target.Name, "call tool")
	}

	return convertResult(result), nil
}

// ListTools queries the backend for its tools, with backend-local names.
func (cl *Client) ListTools(ctx context.Context, target *gateway.BackendTarget) ([]gateway.Tool, error) {
	logger.Debugw("Listing downstream tools", "backend", target.Name)

	c, err := cl.clientFactory(ctx, target)
	if err != nil {
		return nil, wrapBackendError(err, target.Name, "create client")
	}
	defer closeClient(c)

	if err := initialize(ctx, c); err != nil {
		return nil, wrapBackendError(err, target.Name, "initialize")
	}

	resp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, wrapBackendError(err, target.Name, "list tools")
	}

	tools := make([]gateway.Tool, len(resp.Tools))
	for i, tool := range resp.Tools {
		tools[i] = gateway.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: convertInputSchema(tool.InputSchema),
		}
	}
	return tools, nil
}

func closeClient(c *client.Client) {
	if err := c.Close(); err != nil {
		logger.Debugw("Failed to close backend client", "error", err)
	}
}

// convertInputSchema flattens the SDK schema struct into the opaque map the
// catalog passes through to agents.
func convertInputSchema(schema mcp.ToolInputSchema) map[string]any {
	out := map[string]any{"type": schema.Type}
	if schema.Properties != nil {
		out["properties"] = schema.Properties
	}
	if len(schema.Required) > 0 {
		out["required"] = schema.Required
	}
	return out
}

// convertResult maps the SDK tool result onto the canonical shape.
func convertResult(result *mcp.CallToolResult) *gateway.ToolCallResult {
	out := &gateway.ToolCallResult{
		Content: make([]gateway.Content, len(result.Content)),
		IsError: result.IsError,
		Meta:    fromMCPMeta(result.Meta),
	}
	for i, content := range result.Content {
		out.Content[i] = convertContent(content)
	}
	if structured, ok := result.StructuredContent.(map[string]any); ok {
		out.StructuredContent = structured
	}
	if result.IsError {
		if len(out.Content) > 0 && out.Content[0].Type == "text" {
			out.Error = out.Content[0].Text
		}
		if out.Error == "" {
			out.Error = "tool execution error"
		}
	}
	return out
}

// convertContent maps one SDK content block onto gateway.Content.
func convertContent(content mcp.Content) gateway.Content {
	if text, ok := mcp.AsTextContent(content); ok {
		return gateway.Content{Type: "text", Text: text.Text}
	}
	if image, ok := mcp.AsImageContent(content); ok {
		return gateway.Content{Type: "image", Data: image.Data, MimeType: image.MIMEType}
	}
	if audio, ok := mcp.AsAudioContent(content); ok {
		return gateway.Content{Type: "audio", Data: audio.Data, MimeType: audio.MIMEType}
	}
	logger.Warnw("Unknown backend content type", "type", fmt.Sprintf("%T", content))
	return gateway.Content{Type: "unknown"}
}

// toMCPMeta converts a plain map into the SDK meta type.
func toMCPMeta(meta map[string]any) *mcp.Meta {
	if len(meta) == 0 {
		return nil
	}
	out := &mcp.Meta{AdditionalFields: make(map[string]any)}
	for k, v := range meta {
		if k == "progressToken" {
			out.ProgressToken = v
		} else {
			out.AdditionalFields[k] = v
		}
	}
	return out
}

// fromMCPMeta converts the SDK meta type into a plain map.
func fromMCPMeta(meta *mcp.Meta) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta.AdditionalFields)+1)
	for k, v := range meta.AdditionalFields {
		out[k] = v
	}
	if meta.ProgressToken != nil {
		out["progressToken"] = meta.ProgressToken
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// wrapBackendError maps transport failures onto the gateway's sentinel
// errors so callers can branch with errors.Is.
func wrapBackendError(err error, backend, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s on backend %s: %v", gateway.ErrTimeout, operation, backend, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s on backend %s: %v", gateway.ErrTimeout, operation, backend, err)
	}

	return fmt.Errorf("%w: %s on backend %s: %v", gateway.ErrBackendUnavailable, operation, backend, err)
}
