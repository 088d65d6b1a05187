// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/auth"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/gateway/session"
	"github.com/archestra-ai/archestra/pkg/logger"
)

const (
	// sessionHeader carries the session identifier in both directions.
	sessionHeader = "Mcp-Session-Id"

	// maxBodyBytes caps the protocol request body at 1 MiB.
	maxBodyBytes = 1 << 20
)

// JSON-RPC error codes emitted by the dispatcher itself. Everything past
// delegation is enveloped by the SDK.
const (
	rpcErrorInvalidRequest  = -32600
	rpcErrorSessionNotFound = -32001
	rpcErrorInternal        = -32603
)

// dispatcher owns the gateway endpoint: it resolves the session for each
// protocol request and hands the raw request to the session's transport.
// Envelope parsing stays inside the SDK; the dispatcher only sniffs the
// method name to drive session resolution and auditing.
type dispatcher struct {
	sessions *session.Manager
	recorder audit.Recorder
	version  string
}

func newDispatcher(sessions *session.Manager, recorder audit.Recorder, version string) *dispatcher {
	return &dispatcher{
		sessions: sessions,
		recorder: recorder,
		version:  version,
	}
}

// handleDiscovery serves the stateless GET metadata document.
func (d *dispatcher) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	agent, ok := auth.AgentFromContext(r.Context())
	if !ok {
		writeRPCError(w, http.StatusInternalServerError, rpcErrorInternal,
			"internal error", "no agent identity on request", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"name":      gateway.ServerName,
		"version":   d.version,
		"agentId":   agent.ID,
		"transport": "http",
		"capabilities": map[string]any{
			"tools": true,
		},
	}); err != nil {
		logger.Warnw("Failed to write discovery response", "error", err)
	}
}

// handleProtocol serves POST protocol requests: resolve the session, then
// delegate the raw request to its transport.
func (d *dispatcher) handleProtocol(w http.ResponseWriter, r *http.Request) {
	agent, ok := auth.AgentFromContext(r.Context())
	if !ok {
		writeRPCError(w, http.StatusInternalServerError, rpcErrorInternal,
			"internal error", "no agent identity on request", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, rpcErrorInvalidRequest,
			"unreadable request body", err.Error(), nil)
		return
	}
	if len(body) > maxBodyBytes {
		writeRPCError(w, http.StatusBadRequest, rpcErrorInvalidRequest,
			"request body exceeds 1 MiB", nil, nil)
		return
	}

	method := gjson.GetBytes(body, "method").String()
	rpcID := rpcIDFromBody(body)
	initialize := method == audit.MethodInitialize

	sess, created, err := d.sessions.Resolve(r.Context(), r.Header.Get(sessionHeader), agent, initialize)
	if err != nil {
		if errors.Is(err, gateway.ErrSessionNotFound) {
			writeRPCError(w, http.StatusNotFound, rpcErrorSessionNotFound,
				"session not found", nil, rpcID)
			return
		}
		logger.Errorw("Session resolution failed",
			"agent_id", agent.ID, "method", method, "error", err)
		writeRPCError(w, http.StatusInternalServerError, rpcErrorInternal,
			"internal error", err.Error(), rpcID)
		return
	}

	// The SDK expects initialize without a session header and calls
	// Generate; a freshly adopted client identifier must take that path too.
	if created && initialize {
		r.Header.Del(sessionHeader)
	}
	w.Header().Set(sessionHeader, sess.ID())

	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))

	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	sess.Handler().ServeHTTP(recorder, r)

	if recorder.status < http.StatusBadRequest {
		d.recordGatewayMethod(r, agent, method)
	}
}

// handleTerminate serves DELETE. The protocol has no logout; a live session
// delegates to the transport, which reports termination as not allowed.
func (d *dispatcher) handleTerminate(w http.ResponseWriter, r *http.Request) {
	sess, ok := d.sessions.Get(r.Header.Get(sessionHeader))
	if !ok {
		writeRPCError(w, http.StatusNotFound, rpcErrorSessionNotFound,
			"session not found", nil, nil)
		return
	}
	sess.Handler().ServeHTTP(w, r)
}

// recordGatewayMethod persists the audit entry for gateway-level methods.
// Tool executions are recorded by the router with the provider namespace;
// here only initialize and tools/list are of interest. Best-effort.
func (d *dispatcher) recordGatewayMethod(r *http.Request, agent *gateway.Agent, method string) {
	if method != audit.MethodInitialize && method != audit.MethodToolsList {
		return
	}
	rec := &audit.Record{
		AgentID:    agent.ID,
		ServerName: gateway.ServerName,
		Method:     method,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.recorder.Record(r.Context(), rec); err != nil {
		logger.Warnw("Failed to persist audit record",
			"agent_id", agent.ID, "method", method, "error", err)
	}
}

// rpcIDFromBody extracts the JSON-RPC id for dispatcher-emitted envelopes.
// Returns nil when absent so the envelope carries id:null.
func rpcIDFromBody(body []byte) any {
	id := gjson.GetBytes(body, "id")
	if !id.Exists() {
		return nil
	}
	return id.Value()
}

// writeRPCError writes a JSON-RPC error envelope with the given HTTP status.
// data is attached only when non-nil.
func writeRPCError(w http.ResponseWriter, status, code int, message string, data, rpcID any) {
	rpcErr := map[string]any{
		"code":    code,
		"message": message,
	}
	if data != nil {
		rpcErr["data"] = data
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      rpcID,
		"error":   rpcErr,
	}); err != nil {
		logger.Warnw("Failed to write error envelope", "error", err)
	}
}

// statusRecorder captures the status code written by the delegated transport
// so the dispatcher can audit only successful delegations.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush forwards streaming flushes so SSE responses keep working through
// the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
