// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/gateway"
	"github.com/archestra-ai/archestra/pkg/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.Context(), filepath.Join(t.TempDir(), "gateway-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(openTestDB(t))
	ctx := t.Context()

	require.NoError(t, store.Set(ctx, "agent-1", "favorite_color", "teal"))
	require.NoError(t, store.Set(ctx, "agent-1", "city", "Berlin"))
	require.NoError(t, store.Set(ctx, "agent-2", "city", "Lisbon"))

	got, err := store.Get(ctx, "agent-1", "favorite_color")
	require.NoError(t, err)
	assert.Equal(t, "teal", got.Value)
	assert.False(t, got.UpdatedAt.IsZero())

	list, err := store.List(ctx, "agent-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Ordered by name.
	assert.Equal(t, "city", list[0].Name)
	assert.Equal(t, "favorite_color", list[1].Name)

	// Memories are agent-scoped.
	other, err := store.List(ctx, "agent-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "Lisbon", other[0].Value)
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(openTestDB(t))
	ctx := t.Context()

	require.NoError(t, store.Set(ctx, "agent-1", "city", "Berlin"))
	require.NoError(t, store.Set(ctx, "agent-1", "city", "Munich"))

	got, err := store.Get(ctx, "agent-1", "city")
	require.NoError(t, err)
	assert.Equal(t, "Munich", got.Value)

	list, err := store.List(ctx, "agent-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore_NotFound(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(openTestDB(t))
	ctx := t.Context()

	_, err := store.Get(ctx, "agent-1", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	err = store.Delete(ctx, "agent-1", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Parallel()
	store := NewMemoryStore(openTestDB(t))
	ctx := t.Context()

	require.NoError(t, store.Set(ctx, "agent-1", "city", "Berlin"))
	require.NoError(t, store.Delete(ctx, "agent-1", "city"))

	_, err := store.Get(ctx, "agent-1", "city")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAuditStore_RecordAndList(t *testing.T) {
	t.Parallel()
	store := NewAuditStore(openTestDB(t))
	ctx := t.Context()

	require.NoError(t, store.Record(ctx, &audit.Record{
		AgentID:    "agent-1",
		ServerName: gateway.ServerName,
		Method:     audit.MethodInitialize,
	}))
	require.NoError(t, store.Record(ctx, &audit.Record{
		AgentID:    "agent-1",
		ServerName: "github",
		Method:     audit.MethodToolsCall,
		ToolCall: &gateway.ToolCall{
			ID:        "call-1",
			Name:      "github__create_issue",
			Arguments: map[string]any{"title": "bug"},
		},
		ToolResult: map[string]any{"isError": false},
	}))

	records, err := store.List(ctx, "agent-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	call := records[0]
	assert.Equal(t, audit.MethodToolsCall, call.Method)
	assert.Equal(t, "github", call.ServerName)
	require.NotNil(t, call.ToolCall)
	assert.Equal(t, "call-1", call.ToolCall.ID)
	assert.Equal(t, "github__create_issue", call.ToolCall.Name)
	assert.Equal(t, map[string]any{"title": "bug"}, call.ToolCall.Arguments)
	assert.False(t, call.CreatedAt.IsZero())

	initialize := records[1]
	assert.Equal(t, audit.MethodInitialize, initialize.Method)
	assert.Nil(t, initialize.ToolCall)
	assert.Nil(t, initialize.ToolResult)
}

func TestAuditStore_ListScopedToAgent(t *testing.T) {
	t.Parallel()
	store := NewAuditStore(openTestDB(t))
	ctx := t.Context()

	require.NoError(t, store.Record(ctx, &audit.Record{
		AgentID: "agent-1", ServerName: gateway.ServerName, Method: audit.MethodToolsList,
	}))
	require.NoError(t, store.Record(ctx, &audit.Record{
		AgentID: "agent-2", ServerName: gateway.ServerName, Method: audit.MethodToolsList,
	}))

	records, err := store.List(ctx, "agent-1", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestNewStores(t *testing.T) {
	t.Parallel()

	t.Run("empty path yields noop stores", func(t *testing.T) {
		t.Parallel()
		stores, err := NewStores(t.Context(), "", true)
		require.NoError(t, err)
		t.Cleanup(func() { _ = stores.Close() })

		assert.IsType(t, &audit.Noop{}, stores.Audit)
		assert.IsType(t, &storage.NoopMemoryStore{}, stores.Memory)
	})

	t.Run("audit disabled keeps memory persistent", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "gateway.db")
		stores, err := NewStores(t.Context(), dbPath, false)
		require.NoError(t, err)
		t.Cleanup(func() { _ = stores.Close() })

		assert.IsType(t, &audit.Noop{}, stores.Audit)
		assert.IsType(t, &MemoryStore{}, stores.Memory)
	})

	t.Run("audit enabled wires the sqlite recorder", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "gateway.db")
		stores, err := NewStores(t.Context(), dbPath, true)
		require.NoError(t, err)
		t.Cleanup(func() { _ = stores.Close() })

		assert.IsType(t, &AuditStore{}, stores.Audit)
	})
}
