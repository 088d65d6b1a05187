// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/archestra-ai/archestra/pkg/storage"
)

// MemoryStore implements storage.MemoryStore using SQLite.
type MemoryStore struct {
	wrapper *DB
	db      *sql.DB
}

// NewMemoryStore creates a new SQLite-backed MemoryStore.
func NewMemoryStore(db *DB) *MemoryStore {
	return &MemoryStore{wrapper: db, db: db.DB()}
}

var _ storage.MemoryStore = (*MemoryStore)(nil)

// Set creates or replaces the named memory for the given agent.
func (s *MemoryStore) Set(ctx context.Context, agentID, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_memories (agent_id, name, value) VALUES (?, ?, ?)
		ON CONFLICT (agent_id, name) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		agentID, name, value,
	)
	if err != nil {
		return fmt.Errorf("upserting memory: %w", err)
	}
	return nil
}

// Get retrieves one memory by name.
func (s *MemoryStore) Get(ctx context.Context, agentID, name string) (storage.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, value, updated_at FROM agent_memories WHERE agent_id = ? AND name = ?`,
		agentID, name,
	)
	return scanMemory(row)
}

// List returns all memories for the given agent, ordered by name.
func (s *MemoryStore) List(ctx context.Context, agentID string) ([]storage.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, value, updated_at FROM agent_memories WHERE agent_id = ? ORDER BY name`,
		agentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying memories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var memories []storage.Memory
	for rows.Next() {
		m, scanErr := scanMemory(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating memory rows: %w", err)
	}

	return memories, nil
}

// Delete removes the named memory.
func (s *MemoryStore) Delete(ctx context.Context, agentID, name string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM agent_memories WHERE agent_id = ? AND name = ?`,
		agentID, name,
	)
	if err != nil {
		return fmt.Errorf("deleting memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Close closes the underlying database connection.
func (s *MemoryStore) Close() error {
	return s.wrapper.Close()
}

// scanner is an interface satisfied by both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanMemory(sc scanner) (storage.Memory, error) {
	var (
		m            storage.Memory
		updatedAtStr string
	)
	if err := sc.Scan(&m.Name, &m.Value, &updatedAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Memory{}, storage.ErrNotFound
		}
		return storage.Memory{}, fmt.Errorf("scanning memory row: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, updatedAtStr)
	if err != nil {
		return storage.Memory{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	m.UpdatedAt = updatedAt

	return m, nil
}
