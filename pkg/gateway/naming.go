// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"fmt"
	"strings"
)

const (
	// ServerName is the MCP server name the gateway reports to clients and
	// the audit server name recorded for gateway-level methods.
	ServerName = "mcp-gateway"

	// BuiltinNamespace is the tool-name namespace executed in-process.
	BuiltinNamespace = "archestra"

	// NameSeparator joins a namespace and a tool name into a fully-qualified
	// tool name. It is a fixed, non-overridable token.
	NameSeparator = "__"
)

// QualifyToolName joins a namespace and a backend-local tool name into the
// fully-qualified form presented to agents.
func QualifyToolName(namespace, tool string) string {
	return namespace + NameSeparator + tool
}

// SplitToolName splits a fully-qualified tool name into its namespace and
// backend-local parts. The split happens on the first separator occurrence,
// so backend-local names may themselves contain the separator token.
func SplitToolName(qualified string) (namespace, tool string, err error) {
	namespace, tool, found := strings.Cut(qualified, NameSeparator)
	if !found {
		return "", "", fmt.Errorf("%w: tool name %q is not fully qualified", ErrInvalidInput, qualified)
	}
	if namespace == "" || tool == "" {
		return "", "", fmt.Errorf("%w: tool name %q has an empty namespace or tool part", ErrInvalidInput, qualified)
	}
	return namespace, tool, nil
}

// IsBuiltin reports whether a fully-qualified tool name belongs to the
// in-process builtin namespace.
func IsBuiltin(qualified string) bool {
	return strings.HasPrefix(qualified, BuiltinNamespace+NameSeparator)
}
