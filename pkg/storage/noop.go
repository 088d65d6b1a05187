// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import "context"

// NoopMemoryStore is a no-op implementation of MemoryStore, used when the
// gateway runs without a database. Get always returns ErrNotFound, List
// returns empty, and write operations succeed silently.
type NoopMemoryStore struct{}

var _ MemoryStore = (*NoopMemoryStore)(nil)

// Set is a no-op that always succeeds.
func (*NoopMemoryStore) Set(_ context.Context, _, _, _ string) error {
	return nil
}

// Get always returns ErrNotFound in the no-op implementation.
func (*NoopMemoryStore) Get(_ context.Context, _, _ string) (Memory, error) {
	return Memory{}, ErrNotFound
}

// List always returns an empty slice in the no-op implementation.
func (*NoopMemoryStore) List(_ context.Context, _ string) ([]Memory, error) {
	return []Memory{}, nil
}

// Delete is a no-op that always succeeds.
func (*NoopMemoryStore) Delete(_ context.Context, _, _ string) error {
	return nil
}

// Close is a no-op that always succeeds.
func (*NoopMemoryStore) Close() error { return nil }
