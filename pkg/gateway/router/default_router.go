// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/builtin"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/logger"
)

// Metrics receives per-call outcome counts. pkg/telemetry implements it;
// nil disables reporting.
type Metrics interface {
	ToolCallObserved(namespace string, isError bool)
}

// defaultRouter routes by tool-name namespace: the builtin namespace
// executes in-process, everything else resolves to a configured downstream
// backend. The backend table is guarded by an RWMutex so it can be replaced
// atomically if backend configuration is ever reloaded.
type defaultRouter struct {
	builtins    *builtin.Registry
	client      gateway.BackendClient
	credentials gateway.CredentialResolver
	recorder    audit.Recorder
	metrics     Metrics

	mu       sync.RWMutex
	backends map[string]*gateway.BackendTarget
}

// NewDefaultRouter creates the router. backends is keyed by backend name,
// which doubles as the tool-name namespace. recorder may not be nil; use
// audit.NewNoop() to disable persistence. metrics may be nil.
func NewDefaultRouter(
	builtins *builtin.Registry,
	client gateway.BackendClient,
	credentials gateway.CredentialResolver,
	backends []*gateway.BackendTarget,
	recorder audit.Recorder,
	metrics Metrics,
) Router {
	table := make(map[string]*gateway.BackendTarget, len(backends))
	for _, b := range backends {
		table[b.Name] = b
	}
	return &defaultRouter{
		builtins:    builtins,
		client:      client,
		credentials: credentials,
		recorder:    recorder,
		metrics:     metrics,
		backends:    table,
	}
}

// Execute implements Router.
func (r *defaultRouter) Execute(
	ctx context.Context, agent *gateway.Agent, call *gateway.ToolCall,
) (*gateway.ToolCallResult, error) {
	namespace, toolName, err := gateway.SplitToolName(call.Name)
	if err != nil {
		return nil, err
	}

	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	var result *gateway.ToolCallResult
	if namespace == gateway.BuiltinNamespace {
		result = r.executeBuiltin(ctx, agent, toolName, call.Arguments)
	} else {
		result, err = r.executeDownstream(ctx, agent, namespace, toolName, call.Arguments)
		if err != nil {
			return nil, err
		}
	}

	r.record(ctx, agent, namespace, call, result)
	if r.metrics != nil {
		r.metrics.ToolCallObserved(namespace, result.IsError)
	}
	return result, nil
}

// executeBuiltin runs a builtin in-process against the agent's own identity.
// Handler errors are caller-visible tool failures, not faults.
func (r *defaultRouter) executeBuiltin(
	ctx context.Context, agent *gateway.Agent, toolName string, args map[string]any,
) *gateway.ToolCallResult {
	out, err := r.builtins.Execute(ctx, agent, toolName, args)
	if err != nil {
		logger.Debugw("Builtin tool failed", "tool", toolName, "agent_id", agent.ID, "error", err)
		return errorResult(err.Error())
	}
	return &gateway.ToolCallResult{Content: NormalizeContent(out)}
}

// executeDownstream forwards the call to the backend owning the namespace.
// An unresolvable namespace is a structural fault; everything the provider
// itself gets wrong is converted to a canonical error result.
func (r *defaultRouter) executeDownstream(
	ctx context.Context, agent *gateway.Agent, namespace, toolName string, args map[string]any,
) (*gateway.ToolCallResult, error) {
	r.mu.RLock()
	target, ok := r.backends[namespace]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no backend for namespace %s", gateway.ErrToolNotFound, namespace)
	}

	creds, err := r.credentials.Resolve(ctx, agent.ID, target)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials for backend %s: %w", namespace, err)
	}

	// Shallow copy so per-agent credentials never mutate the shared table.
	resolved := *target
	resolved.Auth = creds

	result, err := r.client.CallTool(ctx, &resolved, toolName, args, nil)
	if err != nil {
		logger.Warnw("Downstream tool call failed",
			"backend", namespace, "tool", toolName, "agent_id", agent.ID, "error", err)
		return errorResult(err.Error()), nil
	}

	result.Content = NormalizeContent(result.Content)
	return result, nil
}

// record appends the audit entry for this call. Best-effort: failures are
// logged and swallowed so the execution result never depends on audit health.
func (r *defaultRouter) record(
	ctx context.Context, agent *gateway.Agent, namespace string, call *gateway.ToolCall, result *gateway.ToolCallResult,
) {
	rec := &audit.Record{
		AgentID:    agent.ID,
		ServerName: namespace,
		Method:     audit.MethodToolsCall,
		ToolCall:   call,
		ToolResult: result,
	}
	if err := r.recorder.Record(ctx, rec); err != nil {
		logger.Errorw("Failed to persist tool call record",
			"agent_id", agent.ID, "tool", call.Name, "error", err)
	}
}
