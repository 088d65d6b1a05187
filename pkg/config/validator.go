// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// Validate performs comprehensive validation of the configuration. All
// problems are collected and reported together so a broken config is fixed
// in one pass.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: configuration is nil", gateway.ErrInvalidConfig)
	}

	var problems []string

	problems = append(problems, validateServer(&cfg.Server)...)
	problems = append(problems, validateSession(&cfg.Session)...)
	problems = append(problems, validateAgents(&cfg.Agents)...)
	problems = append(problems, validateBackends(cfg.Backends)...)

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", gateway.ErrInvalidConfig, strings.Join(problems, "\n  - "))
	}
	return nil
}

func validateServer(server *ServerConfig) []string {
	var problems []string
	if server.Port < 0 || server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port must be in [0, 65535], got %d", server.Port))
	}
	if !strings.HasPrefix(server.EndpointPath, "/") {
		problems = append(problems, fmt.Sprintf("server.endpoint_path must start with '/', got %q", server.EndpointPath))
	}
	return problems
}

func validateSession(session *SessionConfig) []string {
	var problems []string
	if session.TTL < 0 {
		problems = append(problems, "session.ttl must not be negative")
	}
	if session.SweepInterval < 0 {
		problems = append(problems, "session.sweep_interval must not be negative")
	}
	return problems
}

func validateAgents(agents *AgentsConfig) []string {
	var problems []string

	switch agents.Mode {
	case AgentModeStatic:
		if len(agents.Static) == 0 {
			problems = append(problems, "agents.static must list at least one agent in static mode")
		}
	case AgentModePermissive:
	default:
		problems = append(problems, fmt.Sprintf("agents.mode must be %q or %q, got %q",
			AgentModeStatic, AgentModePermissive, agents.Mode))
	}

	seen := map[string]bool{}
	for i, agent := range agents.Static {
		if agent.ID == "" {
			problems = append(problems, fmt.Sprintf("agents.static[%d].id is required", i))
			continue
		}
		if seen[agent.ID] {
			problems = append(problems, fmt.Sprintf("duplicate agent id %q", agent.ID))
		}
		seen[agent.ID] = true
	}
	return problems
}

func validateBackends(backends []BackendConfig) []string {
	var problems []string

	seen := map[string]bool{}
	for i, backend := range backends {
		name := backend.Name
		if name == "" {
			problems = append(problems, fmt.Sprintf("backends[%d].name is required", i))
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("duplicate backend name %q", name))
		}
		seen[name] = true

		// The backend name doubles as the tool-name namespace.
		if name == gateway.BuiltinNamespace {
			problems = append(problems, fmt.Sprintf("backend name %q collides with the builtin namespace", name))
		}
		if strings.Contains(name, gateway.NameSeparator) {
			problems = append(problems, fmt.Sprintf("backend name %q must not contain %q",
				name, gateway.NameSeparator))
		}

		if backend.URL == "" {
			problems = append(problems, fmt.Sprintf("backends[%d].url is required", i))
		}
		if !slices.Contains(AllowedTransports, backend.Transport) {
			problems = append(problems, fmt.Sprintf("backend %q transport must be one of: %s",
				name, strings.Join(AllowedTransports, ", ")))
		}

		if backend.Auth != nil {
			if backend.Auth.Type != "header" {
				problems = append(problems, fmt.Sprintf("backend %q auth.type must be \"header\"", name))
			} else if backend.Auth.HeaderName == "" {
				problems = append(problems, fmt.Sprintf("backend %q auth.header_name is required", name))
			}
		}
	}
	return problems
}
