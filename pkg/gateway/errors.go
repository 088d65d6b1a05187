package gateway

import "errors"

// Common domain errors used across gateway subpackages.
// These errors should be checked using errors.Is().

var (
	// ErrToolNotFound indicates the requested tool could not be resolved to a
	// builtin or a downstream backend. Wrapping errors should name the tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrSessionNotFound indicates a session identifier did not resolve to a
	// live session. Only surfaced when strict session validation is enabled;
	// the default policy auto-recreates instead.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAgentNotFound indicates the bearer token did not resolve to a known agent.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrBackendUnavailable indicates a downstream MCP server could not be
	// reached. Wrapping errors should include the backend name.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrTimeout indicates an operation timed out.
	// Wrapping errors should include the operation type and timeout duration.
	ErrTimeout = errors.New("operation timed out")

	// ErrUnauthorized indicates a missing or malformed bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidInput indicates invalid input parameters.
	// Wrapping errors should specify which parameter is invalid and why.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates invalid configuration was provided.
	// Wrapping errors should provide specific details about what is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
)
