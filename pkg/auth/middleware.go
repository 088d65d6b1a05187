// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/logger"
)

// rpcErrorUnauthorized is the JSON-RPC error code returned for missing or
// malformed bearer tokens on protocol requests.
const rpcErrorUnauthorized = -32000

// AgentResolver resolves a bearer agent identifier to a known agent.
// pkg/agents provides the implementations.
type AgentResolver interface {
	// Find returns the agent for id, or an error wrapping
	// gateway.ErrAgentNotFound when the identifier is unknown.
	Find(ctx context.Context, id string) (*gateway.Agent, error)
}

// Middleware returns HTTP middleware that authenticates every request with
// the Bearer agent-identifier scheme and stores the resolved agent on the
// request context. Requests without a resolvable agent are rejected with 401
// before any session work happens.
func Middleware(resolver AgentResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agentID, ok := bearerToken(r)
			if !ok {
				logger.Debugw("Rejected request with missing or malformed Authorization header",
					"path", r.URL.Path, "method", r.Method)
				writeUnauthorized(w, r, "missing or malformed bearer token")
				return
			}

			agent, err := resolver.Find(r.Context(), agentID)
			if err != nil {
				logger.Debugw("Rejected request for unknown agent", "agent_id", agentID, "error", err)
				writeUnauthorized(w, r, "unknown agent")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAgent(r.Context(), agent)))
		})
	}
}

// bearerToken extracts the agent identifier from the Authorization header.
// Returns false for an absent header, a non-Bearer scheme, or an empty token.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// writeUnauthorized writes the 401 response. Discovery (GET) callers get a
// plain error object; protocol (POST) callers get a JSON-RPC error envelope.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	var body any
	if r.Method == http.MethodGet {
		body = map[string]string{
			"error":   "unauthorized",
			"message": message,
		}
	} else {
		body = map[string]any{
			"jsonrpc": "2.0",
			"id":      nil,
			"error": map[string]any{
				"code":    rpcErrorUnauthorized,
				"message": message,
			},
		}
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debugw("Failed to write unauthorized response", "error", err)
	}
}
