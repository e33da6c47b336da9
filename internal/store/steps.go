package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// stepAppendRetries bounds the retry loop for concurrent step appends.
const stepAppendRetries = 5

// AppendStep inserts a step with the next step order for its flow.
//
// The order is assigned inside a transaction as max(step_order)+1; the
// UNIQUE(flow_id, step_order) constraint catches two appenders that read the
// same max, and the loser re-reads and retries. Orders therefore form exactly
// 1..N in commit order with no gaps or duplicates, even under concurrency.
//
// The caller is responsible for verifying the flow exists.
func (s *Store) AppendStep(ctx context.Context, st flow.Step) (flow.Step, error) {
	var lastErr error
	for attempt := 0; attempt < stepAppendRetries; attempt++ {
		inserted, err := s.tryAppendStep(ctx, &st)
		if err != nil {
			return flow.Step{}, err
		}
		if inserted {
			return st, nil
		}
		lastErr = fmt.Errorf("step order %d taken", st.StepOrder)
	}
	return flow.Step{}, fmt.Errorf("append step: retries exhausted: %w", lastErr)
}

// tryAppendStep makes one attempt: read max order, insert at max+1.
// Returns inserted=false on a unique-constraint conflict (another appender won).
func (s *Store) tryAppendStep(ctx context.Context, st *flow.Step) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("append step: begin tx: %w", err)
	}
	defer tx.Rollback()

	var next int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(step_order), 0) + 1
		FROM orchestration_steps
		WHERE flow_id = ?
	`, st.FlowID).Scan(&next)
	if err != nil {
		return false, fmt.Errorf("append step: next order: %w", err)
	}
	st.StepOrder = next

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orchestration_steps
		(id, flow_id, step_order, source_artifact_id, target_artifact_id, adapter_id, payload, receipt_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		st.ID,
		st.FlowID,
		st.StepOrder,
		st.SourceArtifactID,
		st.TargetArtifactID,
		st.AdapterID,
		string(st.Payload),
		st.ReceiptID,
		st.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("append step: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("append step: commit: %w", err)
	}

	return true, nil
}

// ListSteps returns all steps for a flow ordered by step order ascending.
func (s *Store) ListSteps(ctx context.Context, flowID string) ([]flow.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow_id, step_order, source_artifact_id, target_artifact_id, adapter_id, payload, receipt_id, created_at
		FROM orchestration_steps
		WHERE flow_id = ?
		ORDER BY step_order ASC
	`, flowID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	steps := []flow.Step{}
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}

	return steps, nil
}

// GetStep retrieves a step by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetStep(ctx context.Context, id string) (flow.Step, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, flow_id, step_order, source_artifact_id, target_artifact_id, adapter_id, payload, receipt_id, created_at
		FROM orchestration_steps
		WHERE id = ?
	`, id)
	return scanStep(row)
}

// SetStepReceipt records the receipt created for a step during execution.
// Populated exactly once; only rows with an empty receipt_id are eligible.
func (s *Store) SetStepReceipt(ctx context.Context, stepID, receiptID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE orchestration_steps
		SET receipt_id = ?
		WHERE id = ? AND receipt_id = ''
	`, receiptID, stepID)
	if err != nil {
		return fmt.Errorf("set step receipt: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set step receipt: rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("set step receipt: step %s missing or already linked", stepID)
	}

	return nil
}

func scanStep(row rowScanner) (flow.Step, error) {
	var st flow.Step
	var payload string
	var createdAt int64

	err := row.Scan(
		&st.ID, &st.FlowID, &st.StepOrder,
		&st.SourceArtifactID, &st.TargetArtifactID, &st.AdapterID,
		&payload, &st.ReceiptID, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return flow.Step{}, err
		}
		return flow.Step{}, fmt.Errorf("scan step: %w", err)
	}

	if payload != "" {
		st.Payload = json.RawMessage(payload)
	}
	st.CreatedAt = time.Unix(0, createdAt)

	return st, nil
}
