// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config provides the gateway configuration model: YAML loading with
// environment variable expansion, defaults, and validation.
package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Transport type constants for backend configuration.
const (
	// TransportSSE is the Server-Sent Events transport protocol.
	TransportSSE = "sse"
	// TransportStreamableHTTP is the streamable HTTP transport protocol.
	TransportStreamableHTTP = "streamable-http"
)

// AllowedTransports lists the transport types a backend may declare.
var AllowedTransports = []string{TransportStreamableHTTP, TransportSSE}

// Agent directory modes.
const (
	// AgentModeStatic resolves agents from the configured static list.
	AgentModeStatic = "static"
	// AgentModePermissive accepts any UUID-shaped agent identifier.
	AgentModePermissive = "permissive"
)

// Duration is a wrapper around time.Duration that marshals/unmarshals as a
// duration string ("30s", "5m") instead of a nanosecond integer.
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(dur)
	return nil
}

// Config is the gateway configuration tree.
type Config struct {
	// Server configures the HTTP surface.
	Server ServerConfig `json:"server" yaml:"server"`

	// Session configures the session manager.
	Session SessionConfig `json:"session" yaml:"session"`

	// Agents configures the agent directory.
	Agents AgentsConfig `json:"agents" yaml:"agents"`

	// Backends lists the downstream MCP servers.
	Backends []BackendConfig `json:"backends,omitempty" yaml:"backends,omitempty"`

	// Audit configures the audit log.
	Audit AuditConfig `json:"audit" yaml:"audit"`

	// Memory configures the agent memory store backing the builtin tools.
	Memory MemoryConfig `json:"memory" yaml:"memory"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Host is the bind address.
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Port is the bind port.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`

	// EndpointPath is the MCP endpoint path.
	EndpointPath string `json:"endpoint_path,omitempty" yaml:"endpoint_path,omitempty"`

	// Version is reported on initialize, discovery and health.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
}

// SessionConfig configures session lifetimes.
type SessionConfig struct {
	// TTL is the idle lifetime of a session.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`

	// SweepInterval is the background expiry sweep cadence.
	SweepInterval Duration `json:"sweep_interval,omitempty" yaml:"sweep_interval,omitempty"`

	// StrictValidation rejects unknown session identifiers on
	// non-initialize requests instead of recreating the session.
	StrictValidation bool `json:"strict_validation,omitempty" yaml:"strict_validation,omitempty"`
}

// AgentsConfig configures the agent directory.
type AgentsConfig struct {
	// Mode selects the directory implementation: "static" or "permissive".
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// Static lists the known agents for static mode.
	Static []AgentConfig `json:"static,omitempty" yaml:"static,omitempty"`
}

// AgentConfig declares one static agent.
type AgentConfig struct {
	// ID is the bearer identifier of the agent.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable agent name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// BackendConfig declares one downstream MCP server.
type BackendConfig struct {
	// Name is the backend name; it doubles as the tool-name namespace.
	Name string `json:"name" yaml:"name"`

	// URL is the backend's MCP endpoint.
	URL string `json:"url" yaml:"url"`

	// Transport is "streamable-http" or "sse".
	Transport string `json:"transport,omitempty" yaml:"transport,omitempty"`

	// Auth is the optional backend authentication.
	Auth *BackendAuthConfig `json:"auth,omitempty" yaml:"auth,omitempty"`
}

// BackendAuthConfig configures how the gateway authenticates to a backend.
type BackendAuthConfig struct {
	// Type is the strategy name. Supported: "header".
	Type string `json:"type" yaml:"type"`

	// HeaderName is the header to inject for the "header" strategy.
	HeaderName string `json:"header_name,omitempty" yaml:"header_name,omitempty"`

	// HeaderValue is the injected value; supports ${VAR} expansion.
	HeaderValue string `json:"header_value,omitempty" yaml:"header_value,omitempty"`
}

// AuditConfig configures audit persistence.
type AuditConfig struct {
	// Enabled turns audit persistence on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// DatabasePath is the SQLite database file path.
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
}

// MemoryConfig configures the agent memory store.
type MemoryConfig struct {
	// DatabasePath is the SQLite database file path. Defaults to the audit
	// database so both stores share one file.
	DatabasePath string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
}
