// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"

	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/storage"
)

// Stores bundles the gateway's persistence-backed collaborators behind one
// database lifecycle.
type Stores struct {
	// Audit persists tool-call records, or discards them when audit is disabled.
	Audit audit.Recorder
	// Memory backs the builtin agent-memory tools.
	Memory storage.MemoryStore

	db *DB
}

// NewStores opens the database at databasePath and wires the stores.
// An empty path yields no-op stores: memories are not persisted and audit
// records are discarded.
func NewStores(ctx context.Context, databasePath string, auditEnabled bool) (*Stores, error) {
	if databasePath == "" {
		return &Stores{
			Audit:  audit.NewNoop(),
			Memory: &storage.NoopMemoryStore{},
		}, nil
	}

	db, err := Open(ctx, databasePath)
	if err != nil {
		return nil, err
	}

	recorder := audit.Recorder(audit.NewNoop())
	if auditEnabled {
		recorder = NewAuditStore(db)
	}

	return &Stores{
		Audit:  recorder,
		Memory: NewMemoryStore(db),
		db:     db,
	}, nil
}

// Close releases the shared database handle.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
