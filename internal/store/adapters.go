package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// UpsertAdapter registers an adapter by adapterId.
//
// First insert sets status to active. A subsequent registration for the same
// adapterId overwrites every field except adapter_id, status, and created_at
// wholesale - there is no partial merge. Returns the stored adapter and
// whether this call inserted it.
func (s *Store) UpsertAdapter(ctx context.Context, a flow.Adapter) (flow.Adapter, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return flow.Adapter{}, false, fmt.Errorf("upsert adapter: begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM orchestration_adapters WHERE adapter_id = ?)
	`, a.AdapterID).Scan(&exists)
	if err != nil {
		return flow.Adapter{}, false, fmt.Errorf("upsert adapter: exists: %w", err)
	}

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE orchestration_adapters
			SET name = ?, version = ?, description = ?, input_schema = ?, output_schema = ?, config = ?, updated_at = ?
			WHERE adapter_id = ?
		`,
			a.Name, a.Version, a.Description, a.InputSchema, a.OutputSchema,
			string(a.Config), a.UpdatedAt.UnixNano(), a.AdapterID,
		)
		if err != nil {
			return flow.Adapter{}, false, fmt.Errorf("upsert adapter: update: %w", err)
		}
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orchestration_adapters
			(adapter_id, name, version, description, input_schema, output_schema, config, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			a.AdapterID, a.Name, a.Version, a.Description, a.InputSchema, a.OutputSchema,
			string(a.Config), string(flow.AdapterActive), a.CreatedAt.UnixNano(), a.UpdatedAt.UnixNano(),
		)
		if err != nil {
			return flow.Adapter{}, false, fmt.Errorf("upsert adapter: insert: %w", err)
		}
	}

	row := tx.QueryRowContext(ctx, `
		SELECT adapter_id, name, version, description, input_schema, output_schema, config, status, created_at, updated_at
		FROM orchestration_adapters
		WHERE adapter_id = ?
	`, a.AdapterID)
	stored, err := scanAdapter(row)
	if err != nil {
		return flow.Adapter{}, false, fmt.Errorf("upsert adapter: reread: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return flow.Adapter{}, false, fmt.Errorf("upsert adapter: commit: %w", err)
	}

	return stored, !exists, nil
}

// GetAdapter retrieves an adapter by its registry key.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetAdapter(ctx context.Context, adapterID string) (flow.Adapter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT adapter_id, name, version, description, input_schema, output_schema, config, status, created_at, updated_at
		FROM orchestration_adapters
		WHERE adapter_id = ?
	`, adapterID)
	return scanAdapter(row)
}

// ListActiveAdapters returns active adapters ordered by name.
// Ties break on adapter_id for deterministic output.
func (s *Store) ListActiveAdapters(ctx context.Context) ([]flow.Adapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT adapter_id, name, version, description, input_schema, output_schema, config, status, created_at, updated_at
		FROM orchestration_adapters
		WHERE status = ?
		ORDER BY name ASC, adapter_id ASC
	`, string(flow.AdapterActive))
	if err != nil {
		return nil, fmt.Errorf("query adapters: %w", err)
	}
	defer rows.Close()

	adapters := []flow.Adapter{}
	for rows.Next() {
		a, err := scanAdapter(rows)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adapters: %w", err)
	}

	return adapters, nil
}

// SetAdapterStatus updates an adapter's status (activation/deactivation).
// Returns false if the adapter does not exist.
func (s *Store) SetAdapterStatus(ctx context.Context, adapterID string, status flow.AdapterStatus, now time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orchestration_adapters
		SET status = ?, updated_at = ?
		WHERE adapter_id = ?
	`, string(status), now.UnixNano(), adapterID)
	if err != nil {
		return false, fmt.Errorf("set adapter status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set adapter status: rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func scanAdapter(row rowScanner) (flow.Adapter, error) {
	var a flow.Adapter
	var config, status string
	var createdAt, updatedAt int64

	err := row.Scan(
		&a.AdapterID, &a.Name, &a.Version, &a.Description,
		&a.InputSchema, &a.OutputSchema, &config, &status,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return flow.Adapter{}, err
		}
		return flow.Adapter{}, fmt.Errorf("scan adapter: %w", err)
	}

	if config != "" {
		a.Config = json.RawMessage(config)
	}
	a.Status = flow.AdapterStatus(status)
	a.CreatedAt = time.Unix(0, createdAt)
	a.UpdatedAt = time.Unix(0, updatedAt)

	return a, nil
}
