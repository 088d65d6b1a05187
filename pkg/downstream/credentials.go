// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package downstream

import (
	"context"

	"github.com/archestra-ai/archestra/pkg/gateway"
)

// StaticCredentialResolver resolves every agent/backend pair to the
// credential declared in the backend's own configuration. Per-agent
// credential storage is an external collaborator; this resolver covers
// deployments where backends carry one shared credential.
type StaticCredentialResolver struct{}

var _ gateway.CredentialResolver = (*StaticCredentialResolver)(nil)

// NewStaticCredentialResolver creates the resolver.
func NewStaticCredentialResolver() *StaticCredentialResolver {
	return &StaticCredentialResolver{}
}

// Resolve implements gateway.CredentialResolver.
func (*StaticCredentialResolver) Resolve(
	_ context.Context, _ string, target *gateway.BackendTarget,
) (*gateway.BackendAuth, error) {
	return target.Auth, nil
}
