// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// Default constants for operational configuration.
const (
	// defaultHost is the default bind address.
	defaultHost = "127.0.0.1"

	// defaultPort is the default bind port.
	defaultPort = 8080

	// defaultEndpointPath is the default MCP endpoint path.
	defaultEndpointPath = "/mcp"

	// defaultVersion is reported when the build does not inject one.
	defaultVersion = "0.1.0"

	// defaultSessionTTL is the default idle session lifetime.
	defaultSessionTTL = 30 * time.Minute

	// defaultSweepInterval is the default expiry sweep cadence.
	defaultSweepInterval = 5 * time.Minute

	// defaultDatabasePath is the default SQLite file for audit and memory.
	defaultDatabasePath = "archestra.db"
)

// Default returns a fully populated Config with default values. This is the
// single source of truth for configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         defaultHost,
			Port:         defaultPort,
			EndpointPath: defaultEndpointPath,
			Version:      defaultVersion,
		},
		Session: SessionConfig{
			TTL:           Duration(defaultSessionTTL),
			SweepInterval: Duration(defaultSweepInterval),
		},
		Agents: AgentsConfig{
			Mode: AgentModePermissive,
		},
		Audit: AuditConfig{
			DatabasePath: defaultDatabasePath,
		},
		Memory: MemoryConfig{
			DatabasePath: defaultDatabasePath,
		},
	}
}

// applyDefaults fills zero-valued fields with their defaults, preserving any
// user-provided values.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.EndpointPath == "" {
		c.Server.EndpointPath = defaults.Server.EndpointPath
	}
	if c.Server.Version == "" {
		c.Server.Version = defaults.Server.Version
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = defaults.Session.TTL
	}
	if c.Session.SweepInterval == 0 {
		c.Session.SweepInterval = defaults.Session.SweepInterval
	}

	if c.Agents.Mode == "" {
		c.Agents.Mode = defaults.Agents.Mode
	}

	if c.Audit.DatabasePath == "" {
		c.Audit.DatabasePath = defaults.Audit.DatabasePath
	}
	if c.Memory.DatabasePath == "" {
		c.Memory.DatabasePath = c.Audit.DatabasePath
	}

	for i := range c.Backends {
		if c.Backends[i].Transport == "" {
			c.Backends[i].Transport = TransportStreamableHTTP
		}
	}
}
