// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gateway defines the core domain types and contracts of the MCP
// gateway: canonical tool calls and results, agent identity, backend
// targets, tool-name qualification, and the sentinel error taxonomy shared
// by every subpackage.
//
// Subpackages implement the moving parts: gateway/session manages the
// session-stateful protocol lifecycle, gateway/router executes tool calls,
// and gateway/server exposes the HTTP surface.
package gateway
