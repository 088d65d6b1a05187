// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/archestra-ai/archestra/pkg/auth"
	"github.com/archestra-ai/archestra/pkg/gateway"
)

type resolverFunc func(ctx context.Context, id string) (*gateway.Agent, error)

func (f resolverFunc) Find(ctx context.Context, id string) (*gateway.Agent, error) {
	return f(ctx, id)
}

func knownAgent(id string) resolverFunc {
	return func(_ context.Context, got string) (*gateway.Agent, error) {
		if got != id {
			return nil, fmt.Errorf("%w: %s", gateway.ErrAgentNotFound, got)
		}
		return &gateway.Agent{ID: id, Name: "tester"}, nil
	}
}

func newProtected(t *testing.T, resolver auth.AgentResolver) *httptest.Server {
	t.Helper()

	handler := auth.Middleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent, ok := auth.AgentFromContext(r.Context())
		require.True(t, ok, "the handler must see the resolved agent")
		fmt.Fprint(w, agent.ID)
	}))

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, method, authorization string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL, nil)
	require.NoError(t, err)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, string(body)
}

func TestMiddlewareResolvesAgent(t *testing.T) {
	t.Parallel()

	ts := newProtected(t, knownAgent("agent-1"))

	resp, body := get(t, ts, http.MethodPost, "Bearer agent-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "agent-1", body)

	// The scheme is case-insensitive per RFC 7235.
	resp, _ = get(t, ts, http.MethodPost, "bearer agent-1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMiddlewareRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		authorization string
	}{
		{name: "missing header", authorization: ""},
		{name: "wrong scheme", authorization: "Basic dXNlcjpwYXNz"},
		{name: "empty token", authorization: "Bearer "},
		{name: "unknown agent", authorization: "Bearer agent-2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := newProtected(t, knownAgent("agent-1"))

			resp, body := get(t, ts, http.MethodPost, tc.authorization)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.EqualValues(t, -32000, gjson.Get(body, "error.code").Int(),
				"protocol callers get a JSON-RPC envelope")
		})
	}
}

func TestMiddlewareUnauthorizedDiscoveryShape(t *testing.T) {
	t.Parallel()

	ts := newProtected(t, knownAgent("agent-1"))

	resp, body := get(t, ts, http.MethodGet, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", gjson.Get(body, "error").String(),
		"discovery callers get a plain error object")
}
