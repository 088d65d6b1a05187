// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/archestra-ai/archestra/pkg/env"
	"github.com/archestra-ai/archestra/pkg/gateway"
)

// envVarPattern matches ${VAR} references in config values.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads the YAML file at path, expands ${VAR} references through the
// given environment reader, applies defaults, and validates. An empty path
// yields the defaults.
func Load(path string, envReader env.Reader) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := Validate(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(raw, envReader)
}

// Parse decodes raw YAML config, expanding ${VAR} references before
// decoding so expansion applies uniformly to every field.
func Parse(raw []byte, envReader env.Reader) (*Config, error) {
	expanded := expandEnv(raw, envReader)

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing config: %w", gateway.ErrInvalidConfig, err)
	}

	cfg.applyDefaults()
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// expandEnv replaces ${VAR} references with values from the reader. Unset
// variables expand to the empty string, mirroring shell behavior.
func expandEnv(raw []byte, envReader env.Reader) []byte {
	return envVarPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(envReader.Getenv(string(name)))
	})
}

// BackendTargets converts the configured backends to router/catalog targets.
func (c *Config) BackendTargets() []*gateway.BackendTarget {
	targets := make([]*gateway.BackendTarget, 0, len(c.Backends))
	for _, b := range c.Backends {
		target := &gateway.BackendTarget{
			Name:          b.Name,
			BaseURL:       b.URL,
			TransportType: b.Transport,
		}
		if b.Auth != nil {
			target.Auth = &gateway.BackendAuth{
				Type:        b.Auth.Type,
				HeaderName:  b.Auth.HeaderName,
				HeaderValue: b.Auth.HeaderValue,
			}
		}
		targets = append(targets, target)
	}
	return targets
}

// StaticAgents converts the configured static agent list to domain agents.
func (c *Config) StaticAgents() []gateway.Agent {
	agents := make([]gateway.Agent, 0, len(c.Agents.Static))
	for _, a := range c.Agents.Static {
		agents = append(agents, gateway.Agent{ID: a.ID, Name: a.Name})
	}
	return agents
}
