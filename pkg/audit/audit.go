// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"time"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// Audited protocol methods. One record is written per invocation of each.
const (
	// MethodInitialize is recorded when a client initializes a session.
	MethodInitialize = "initialize"
	// MethodToolsList is recorded when a client lists the tool catalog.
	MethodToolsList = "tools/list"
	// MethodToolsCall is recorded when a tool is executed.
	MethodToolsCall = "tools/call"
)

// Record is one append-only audit entry. Never mutated after creation.
//
// ServerName is gateway.ServerName for gateway-level methods (initialize,
// tools/list), gateway.BuiltinNamespace for builtin executions, and the
// backend name for downstream executions.
type Record struct {
	ID         int64             `json:"id,omitempty"`
	AgentID    string            `json:"agent_id"`
	ServerName string            `json:"mcp_server_name"`
	Method     string            `json:"method"`
	ToolCall   *gateway.ToolCall `json:"tool_call,omitempty"`
	ToolResult any               `json:"tool_result,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Recorder persists audit records.
//
// Implementations must be safe for concurrent use. Callers treat failures as
// best-effort: errors are logged, never surfaced to the protocol caller.
//
//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks -source=audit.go Recorder
type Recorder interface {
	// Record appends one audit entry.
	Record(ctx context.Context, rec *Record) error
}

// Noop discards all records. Used when audit persistence is disabled.
type Noop struct{}

// NewNoop returns a Recorder that discards everything.
func NewNoop() *Noop {
	return &Noop{}
}

// Record implements Recorder.
func (*Noop) Record(_ context.Context, _ *Record) error {
	return nil
}
