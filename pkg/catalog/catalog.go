// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package catalog aggregates the per-agent tool catalog: the builtin tools
// plus every configured backend's tools, all under fully-qualified names.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/archestra-ai/archestra/pkg/builtin"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/logger"
)

const (
	// maxConcurrentFetches bounds the parallel backend catalog fan-out.
	maxConcurrentFetches = 4

	// maxFetchTries is how often one backend's listing is attempted before
	// the backend is skipped for this catalog build.
	maxFetchTries = 3

	// initialBackoffInterval seeds the exponential retry backoff.
	initialBackoffInterval = 200 * time.Millisecond
)

// Catalog builds per-agent tool listings.
type Catalog struct {
	builtins *builtin.Registry
	client   gateway.BackendClient
	backends []*gateway.BackendTarget
}

// New creates a catalog over the builtin registry and the configured
// backends.
func New(builtins *builtin.Registry, client gateway.BackendClient, backends []*gateway.BackendTarget) *Catalog {
	return &Catalog{
		builtins: builtins,
		client:   client,
		backends: backends,
	}
}

// ListTools returns the agent's full catalog: builtin tools first, then each
// backend's tools prefixed with the backend's namespace, ordered by name
// within each backend. Backend listings run concurrently with bounded
// parallelism and per-backend retry; an unreachable backend is logged and
// skipped so agents still see every remaining tool.
func (c *Catalog) ListTools(ctx context.Context, agent *gateway.Agent) ([]gateway.Tool, error) {
	tools := c.builtins.Tools()

	perBackend := make([][]gateway.Tool, len(c.backends))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, target := range c.backends {
		g.Go(func() error {
			fetched, err := c.fetchWithRetry(gctx, target)
			if err != nil {
				logger.Warnw("Skipping unreachable backend in catalog",
					"backend", target.Name, "agent_id", agent.ID, "error", err)
				return nil
			}
			mu.Lock()
			perBackend[i] = fetched
			mu.Unlock()
			return nil
		})
	}
	// Fetch errors never fail the group; Wait only observes ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, fetched := range perBackend {
		tools = append(tools, fetched...)
	}
	return tools, nil
}

// fetchWithRetry lists one backend's tools, retrying transient failures with
// exponential backoff, and qualifies the names with the backend namespace.
func (c *Catalog) fetchWithRetry(ctx context.Context, target *gateway.BackendTarget) ([]gateway.Tool, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialBackoffInterval

	raw, err := backoff.Retry(ctx, func() ([]gateway.Tool, error) {
		return c.client.ListTools(ctx, target)
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(maxFetchTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debugw("Retrying backend catalog fetch",
				"backend", target.Name, "next_attempt_in", next, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	qualified := make([]gateway.Tool, len(raw))
	for i, tool := range raw {
		qualified[i] = gateway.Tool{
			Name:        gateway.QualifyToolName(target.Name, tool.Name),
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
	}
	sort.Slice(qualified, func(i, j int) bool { return qualified[i].Name < qualified[j].Name })
	return qualified, nil
}
