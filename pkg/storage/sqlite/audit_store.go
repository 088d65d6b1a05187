// SPDX-FileCopyrightText: Copyright 2025 Archestra, Inc.
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/archestra-ai/archestra/pkg/audit"
	"github.com/archestra-ai/archestra/pkg/gateway"
)

// AuditStore implements audit.Recorder using SQLite.
type AuditStore struct {
	wrapper *DB
	db      *sql.DB
}

// NewAuditStore creates a new SQLite-backed audit recorder.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{wrapper: db, db: db.DB()}
}

var _ audit.Recorder = (*AuditStore)(nil)

// Record appends one audit entry.
func (s *AuditStore) Record(ctx context.Context, rec *audit.Record) error {
	var callValue any
	if rec.ToolCall != nil {
		callValue = rec.ToolCall
	}
	callJSON, err := encodeJSONB(callValue)
	if err != nil {
		return fmt.Errorf("encoding tool call: %w", err)
	}
	resultJSON, err := encodeJSONB(rec.ToolResult)
	if err != nil {
		return fmt.Errorf("encoding tool result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tool_call_records (agent_id, mcp_server_name, method, tool_call, tool_result)
		VALUES (?, ?, ?, jsonb(?), jsonb(?))`,
		rec.AgentID, rec.ServerName, rec.Method, callJSON, resultJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting tool call record: %w", err)
	}
	return nil
}

// List returns the most recent records for an agent, newest first. Not part
// of the Recorder contract; used by operational tooling and tests.
func (s *AuditStore) List(ctx context.Context, agentID string, limit int) ([]audit.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_id, mcp_server_name, method, json(tool_call), json(tool_result), created_at
		FROM tool_call_records
		WHERE agent_id = ?
		ORDER BY id DESC
		LIMIT ?`,
		agentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tool call records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []audit.Record
	for rows.Next() {
		var (
			rec          audit.Record
			callBlob     []byte
			resultBlob   []byte
			createdAtStr string
		)
		if err := rows.Scan(
			&rec.ID, &rec.AgentID, &rec.ServerName, &rec.Method,
			&callBlob, &resultBlob, &createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning tool call record: %w", err)
		}

		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if len(callBlob) > 0 && string(callBlob) != "null" {
			var call gateway.ToolCall
			if err := json.Unmarshal(callBlob, &call); err != nil {
				return nil, fmt.Errorf("decoding tool call: %w", err)
			}
			rec.ToolCall = &call
		}
		if len(resultBlob) > 0 && string(resultBlob) != "null" {
			var result any
			if err := json.Unmarshal(resultBlob, &result); err != nil {
				return nil, fmt.Errorf("decoding tool result: %w", err)
			}
			rec.ToolResult = result
		}

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool call records: %w", err)
	}

	return records, nil
}

// Close closes the underlying database connection.
func (s *AuditStore) Close() error {
	return s.wrapper.Close()
}

// encodeJSONB marshals a value for the SQLite jsonb() function.
func encodeJSONB(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return string(data), nil
}
