// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/archestra-ai/archestra/pkg/agents"
	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/builtin"
	"github.com/archestra-ai/archestra/pkg/catalog"
	"github.com/archestra-ai/archestra/pkg/downstream"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/gateway/router"
	"github.com/archestra-ai/archestra/pkg/gateway/server"
	"github.com/archestra-ai/archestra/pkg/gateway/session"
	"github.com/archestra-ai/archestra/pkg/storage"
)

const (
	testAgentID    = "agent-123"
	initializeBody = `{
		"jsonrpc": "2.0",
		"id": 1,
		"method": "initialize",
		"params": {
			"protocolVersion": "2025-03-26",
			"capabilities": {},
			"clientInfo": {"name": "test-client", "version": "0.0.1"}
		}
	}`
	toolsListBody = `{"jsonrpc": "2.0", "id": 2, "method": "tools/list", "params": {}}`
)

var sessionIDPattern = regexp.MustCompile(`^session-\d+-[0-9a-f-]+$`)

// capturingRecorder collects audit records in memory; when err is set every
// Record call fails, exercising the best-effort contract.
type capturingRecorder struct {
	mu      sync.Mutex
	err     error
	records []*audit.Record
}

func (r *capturingRecorder) Record(_ context.Context, rec *audit.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *capturingRecorder) failWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *capturingRecorder) snapshot() []*audit.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*audit.Record{}, r.records...)
}

func (r *capturingRecorder) methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Method
	}
	return out
}

type gatewayFixture struct {
	ts       *httptest.Server
	sessions *session.Manager
	recorder *capturingRecorder
}

func newGateway(t *testing.T, opts session.Options) *gatewayFixture {
	t.Helper()

	recorder := &capturingRecorder{}
	builtins := builtin.NewDefaultRegistry(&storage.NoopMemoryStore{})
	client := downstream.NewClient()
	rt := router.NewDefaultRouter(
		builtins, client, downstream.NewStaticCredentialResolver(), nil, recorder, nil)
	cat := catalog.New(builtins, client, nil)

	factory := server.NewSessionFactory(cat, rt, "/mcp", "0.1.0-test")
	sessions := session.NewManager(factory, opts)
	t.Cleanup(sessions.Stop)

	directory := agents.NewStatic([]gateway.Agent{{ID: testAgentID, Name: "tester"}})
	srv := server.New(&server.Config{Version: "0.1.0-test"}, sessions, directory, recorder, nil)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &gatewayFixture{ts: ts, sessions: sessions, recorder: recorder}
}

func (f *gatewayFixture) post(t *testing.T, sessionID, body string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAgentID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(payload)
}

// rpcResult extracts the JSON-RPC result from a response body that may be
// either a plain JSON envelope or a single SSE event.
func rpcResult(body string) gjson.Result {
	if idx := strings.Index(body, "data: "); idx >= 0 {
		body = body[idx+len("data: "):]
		if end := strings.IndexByte(body, '\n'); end >= 0 {
			body = body[:end]
		}
	}
	return gjson.Get(body, "result")
}

func initializeSession(t *testing.T, f *gatewayFixture) string {
	t.Helper()

	resp, body := f.post(t, "", initializeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, "initialize must succeed: %s", body)

	sessionID := resp.Header.Get("Mcp-Session-Id")
	require.Regexp(t, sessionIDPattern, sessionID)
	return sessionID
}

func TestInitializeCreatesSession(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	sessionID := initializeSession(t, f)

	resp, body := f.post(t, "", initializeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := rpcResult(body)
	assert.Equal(t, gateway.ServerName, result.Get("serverInfo.name").String())

	assert.NotEmpty(t, sessionID)
	assert.Equal(t, 2, f.sessions.Len(), "each initialize creates its own session")
}

func TestSessionReuseRoutesToSameSession(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	sessionID := initializeSession(t, f)

	first, ok := f.sessions.Get(sessionID)
	require.True(t, ok)

	resp, body := f.post(t, sessionID, toolsListBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, sessionID, resp.Header.Get("Mcp-Session-Id"),
		"response must echo the session identifier")

	toolNames := []string{}
	for _, tool := range rpcResult(body).Get("tools").Array() {
		toolNames = append(toolNames, tool.Get("name").String())
	}
	assert.Contains(t, toolNames, "archestra__whoami")

	second, ok := f.sessions.Get(sessionID)
	require.True(t, ok)
	assert.Same(t, first, second, "identifier must map to the same session")
	assert.Equal(t, 1, f.sessions.Len())
}

func TestWhoamiToolCall(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	sessionID := initializeSession(t, f)

	callBody := `{
		"jsonrpc": "2.0", "id": 3, "method": "tools/call",
		"params": {"name": "archestra__whoami", "arguments": {}}
	}`
	resp, body := f.post(t, sessionID, callBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	result := rpcResult(body)
	require.False(t, result.Get("isError").Bool(), body)
	assert.Contains(t, result.Get("content.0.text").String(), testAgentID)
}

func TestExpiredSessionIsRecreatedTransparently(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	sessionID := initializeSession(t, f)

	f.sessions.Clear()
	require.Equal(t, 0, f.sessions.Len())

	resp, body := f.post(t, sessionID, toolsListBody)
	require.Equal(t, http.StatusOK, resp.StatusCode,
		"auto-recovery must accept the stale identifier: %s", body)
	assert.Equal(t, sessionID, resp.Header.Get("Mcp-Session-Id"))
	assert.Equal(t, 1, f.sessions.Len(), "exactly one session recreated")
}

func TestStrictValidationRejectsUnknownSession(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{StrictValidation: true})
	sessionID := initializeSession(t, f)

	f.sessions.Clear()

	resp, body := f.post(t, sessionID, toolsListBody)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.EqualValues(t, -32001, gjson.Get(body, "error.code").Int())

	// Initialize still creates a session in strict mode.
	resp, _ = f.post(t, "", initializeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})

	req, err := http.NewRequest(http.MethodPost, f.ts.URL+"/mcp", strings.NewReader(initializeBody))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, f.sessions.Len(), "no session work before authentication")
}

func TestDiscoveryMetadata(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})

	req, err := http.NewRequest(http.MethodGet, f.ts.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAgentID)

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gateway.ServerName, gjson.GetBytes(body, "name").String())
	assert.Equal(t, testAgentID, gjson.GetBytes(body, "agentId").String())
	assert.True(t, gjson.GetBytes(body, "capabilities.tools").Bool())
	assert.Equal(t, 0, f.sessions.Len(), "discovery is stateless")
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})

	resp, err := f.ts.Client().Get(f.ts.URL + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", gjson.GetBytes(body, "status").String())
}

func TestOversizedBodyRejected(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})

	huge := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"pad":"` +
		strings.Repeat("x", 1<<20) + `"}}`
	resp, body := f.post(t, "", huge)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.EqualValues(t, -32600, gjson.Get(body, "error.code").Int())
}

func TestDeleteIsNotAllowed(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	sessionID := initializeSession(t, f)

	req, err := http.NewRequest(http.MethodDelete, f.ts.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testAgentID)
	req.Header.Set("Mcp-Session-Id", sessionID)

	resp, err := f.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	_, ok := f.sessions.Get(sessionID)
	assert.True(t, ok, "the session survives the rejected delete")
}

func TestGatewayMethodsAreAudited(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	sessionID := initializeSession(t, f)

	resp, _ := f.post(t, sessionID, toolsListBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	methods := f.recorder.methods()
	assert.Contains(t, methods, audit.MethodInitialize)
	assert.Contains(t, methods, audit.MethodToolsList)
	for _, rec := range f.recorder.snapshot() {
		assert.Equal(t, testAgentID, rec.AgentID)
		assert.Equal(t, gateway.ServerName, rec.ServerName)
	}
}

func TestAuditFailureDoesNotBreakProtocol(t *testing.T) {
	t.Parallel()

	f := newGateway(t, session.Options{})
	f.recorder.failWith(errors.New("audit store down"))

	sessionID := initializeSession(t, f)
	resp, body := f.post(t, sessionID, toolsListBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
}
