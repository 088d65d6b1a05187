// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the MCP gateway.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/archestra-ai/archestra/cmd/gateway/app"
	"github.com/archestra-ai/archestra/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := app.NewRootCmd().ExecuteContext(ctx); err != nil {
		logger.Errorw("Error executing command", "error", err)
		os.Exit(1)
	}
}
