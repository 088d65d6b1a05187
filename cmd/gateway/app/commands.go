// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the gateway command-line
// application.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/archestra-ai/archestra/pkg/agents"
	"github.com/archestra-ai/archestra/pkg/auth"
	"github.com/archestra-ai/archestra/pkg/builtin"
	"github.com/archestra-ai/archestra/pkg/catalog"
	"github.com/archestra-ai/archestra/pkg/config"
	"github.com/archestra-ai/archestra/pkg/downstream"
	"github.com/archestra-ai/archestra/pkg/env"
	"github.com/archestra-ai/archestra/pkg/gateway/router"
	"github.com/archestra-ai/archestra/pkg/gateway/server"
	"github.com/archestra-ai/archestra/pkg/gateway/session"
	"github.com/archestra-ai/archestra/pkg/logger"
	"github.com/archestra-ai/archestra/pkg/storage/sqlite"
	"github.com/archestra-ai/archestra/pkg/telemetry"
)

var rootCmd = &cobra.Command{
	Use:               "archestra",
	DisableAutoGenTag: true,
	Short:             "MCP gateway - one session-stateful endpoint for agent tool calling",
	Long: `Archestra is an MCP (Model Context Protocol) gateway. It exposes a single
streamable HTTP endpoint through which agents initialize sessions, discover
their tool catalog, and execute tools. Builtin tools run in-process; every
other tool is forwarded to the configured downstream MCP server that owns
its namespace.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if err := cmd.Help(); err != nil {
			logger.Errorw("Error displaying help", "error", err)
		}
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize()
	},
}

// NewRootCmd creates the root command for the gateway CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorw("Error binding debug flag", "error", err)
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to gateway configuration file")
	if err := viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		logger.Errorw("Error binding config flag", "error", err)
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.SilenceUsage = true
	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP gateway",
		Long: `Start the MCP gateway and serve the session-stateful MCP endpoint.

Without --config the gateway runs with defaults: permissive agent directory,
no downstream backends, and builtin tools backed by a local SQLite database.`,
		RunE: runServe,
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate the gateway configuration file for syntax and semantic errors.

Checks YAML validity, required fields, backend transport and auth settings,
and namespace rules for backend names.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			configPath := viper.GetString("config")
			if configPath == "" {
				return fmt.Errorf("no configuration file specified, use --config flag")
			}

			cfg, err := config.Load(configPath, &env.OSReader{})
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			logger.Infow("Configuration is valid",
				"endpoint", cfg.Server.EndpointPath,
				"agents_mode", cfg.Agents.Mode,
				"backends", len(cfg.Backends),
				"audit_enabled", cfg.Audit.Enabled)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			logger.Infof("archestra version: %s", getVersion())
		},
	}
}

// getVersion returns the version string (replaced at build time via ldflags).
func getVersion() string {
	return "dev"
}

// runServe wires the full gateway from configuration and blocks until
// shutdown.
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(viper.GetString("config"), &env.OSReader{})
	if err != nil {
		return fmt.Errorf("configuration loading failed: %w", err)
	}
	logger.Infow("Configuration loaded",
		"endpoint", cfg.Server.EndpointPath,
		"agents_mode", cfg.Agents.Mode,
		"backends", len(cfg.Backends),
		"audit_enabled", cfg.Audit.Enabled)

	stores, err := sqlite.NewStores(ctx, cfg.Memory.DatabasePath, cfg.Audit.Enabled)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logger.Warnw("Failed to close storage", "error", err)
		}
	}()

	var directory auth.AgentResolver
	if cfg.Agents.Mode == config.AgentModeStatic {
		directory = agents.NewStatic(cfg.StaticAgents())
	} else {
		directory = agents.NewPermissive()
	}

	backends := cfg.BackendTargets()
	builtins := builtin.NewDefaultRegistry(stores.Memory)
	client := downstream.NewClient()
	credentials := downstream.NewStaticCredentialResolver()

	metrics := telemetry.NewMetrics()
	rt := router.NewDefaultRouter(builtins, client, credentials, backends, stores.Audit, metrics)
	cat := catalog.New(builtins, client, backends)

	factory := server.NewSessionFactory(cat, rt, cfg.Server.EndpointPath, cfg.Server.Version)
	sessions := session.NewManager(factory, session.Options{
		TTL:              cfg.Session.TTL.Std(),
		SweepInterval:    cfg.Session.SweepInterval.Std(),
		StrictValidation: cfg.Session.StrictValidation,
		Observer:         metrics,
	})

	srv := server.New(&server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		EndpointPath: cfg.Server.EndpointPath,
		Version:      cfg.Server.Version,
	}, sessions, directory, stores.Audit, metrics.Handler())

	logger.Infow("Starting MCP gateway",
		"host", cfg.Server.Host, "port", cfg.Server.Port)
	return srv.Start(ctx)
}
