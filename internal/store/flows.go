package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// InsertFlow inserts a new flow row.
func (s *Store) InsertFlow(ctx context.Context, f flow.Flow) error {
	artifactsJSON, err := marshalArtifactIDs(f.LinkedArtifactIDs)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orchestration_flows
		(id, wallet_scope_id, name, status, linked_artifact_ids, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		f.ID,
		f.WalletScopeID,
		f.Name,
		string(f.Status),
		artifactsJSON,
		f.CreatedAt.UnixNano(),
		f.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert flow: %w", err)
	}

	return nil
}

// GetFlow retrieves a flow by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetFlow(ctx context.Context, id string) (flow.Flow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, wallet_scope_id, name, status, linked_artifact_ids, created_at, updated_at
		FROM orchestration_flows
		WHERE id = ?
	`, id)
	return scanFlow(row)
}

// ListFlowsByScope returns all flows owned by a wallet scope, newest-updated
// first. Ties break on id for deterministic output.
func (s *Store) ListFlowsByScope(ctx context.Context, scopeID string) ([]flow.Flow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet_scope_id, name, status, linked_artifact_ids, created_at, updated_at
		FROM orchestration_flows
		WHERE wallet_scope_id = ?
		ORDER BY updated_at DESC, id ASC
	`, scopeID)
	if err != nil {
		return nil, fmt.Errorf("query flows: %w", err)
	}
	defer rows.Close()

	flows := []flow.Flow{}
	for rows.Next() {
		f, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flows: %w", err)
	}

	return flows, nil
}

// UpdateFlowStatus performs a conditional status transition: the row is
// updated only if its current status equals from. Returns false if the
// guard did not match (the flow moved concurrently or is terminal) - the
// caller re-reads to produce a precise error.
//
// This conditional write is what makes the executor's pending→running entry
// safe under concurrent Execute calls for the same flow.
func (s *Store) UpdateFlowStatus(ctx context.Context, id string, from, to flow.Status, now time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orchestration_flows
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(to), now.UnixNano(), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update flow status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update flow status: rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// DeleteFlow removes a flow and its steps in one transaction.
// Steps are deleted before the flow to satisfy the foreign key dependency.
func (s *Store) DeleteFlow(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete flow: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM orchestration_steps WHERE flow_id = ?`, id); err != nil {
		return fmt.Errorf("delete flow: delete steps: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orchestration_flows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete flow: delete flow: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete flow: commit: %w", err)
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlow(row rowScanner) (flow.Flow, error) {
	var f flow.Flow
	var status, artifactsJSON string
	var createdAt, updatedAt int64

	err := row.Scan(&f.ID, &f.WalletScopeID, &f.Name, &status, &artifactsJSON, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return flow.Flow{}, err
		}
		return flow.Flow{}, fmt.Errorf("scan flow: %w", err)
	}

	f.Status = flow.Status(status)
	f.LinkedArtifactIDs, err = unmarshalArtifactIDs(artifactsJSON)
	if err != nil {
		return flow.Flow{}, fmt.Errorf("scan flow: %w", err)
	}
	f.CreatedAt = time.Unix(0, createdAt)
	f.UpdatedAt = time.Unix(0, updatedAt)

	return f, nil
}
