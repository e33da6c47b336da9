package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atlaslabs/atlasflow/internal/ledger"
)

// chainAppendRetries bounds the retry loop for concurrent chain appends.
const chainAppendRetries = 5

// AppendReceipt appends a hash-chained receipt for an artifact.
//
// One attempt runs in a single transaction: read the latest receipt for the
// artifact, take its nextHash as prevHash (empty for a fresh chain), compute
// this receipt's digest, insert. The UNIQUE(artifact_id, prev_hash) constraint
// makes the insert a compare-and-swap on the chain head - two appends racing
// from the same prevHash cannot both commit, so the chain never forks. The
// loser re-reads the new head and retries.
//
// meta must be canonical JSON text (ledger.MarshalMeta).
func (s *Store) AppendReceipt(ctx context.Context, id, artifactID, actorScopeID string, op ledger.Op, meta string, now time.Time) (ledger.Receipt, error) {
	if !ledger.ValidOp(op) {
		return ledger.Receipt{}, fmt.Errorf("append receipt: unknown op %q", op)
	}

	var lastErr error
	for attempt := 0; attempt < chainAppendRetries; attempt++ {
		r, inserted, err := s.tryAppendReceipt(ctx, id, artifactID, actorScopeID, op, meta, now)
		if err != nil {
			return ledger.Receipt{}, err
		}
		if inserted {
			return r, nil
		}
		lastErr = fmt.Errorf("chain head moved for artifact %s", artifactID)
	}
	return ledger.Receipt{}, fmt.Errorf("append receipt: retries exhausted: %w", lastErr)
}

func (s *Store) tryAppendReceipt(ctx context.Context, id, artifactID, actorScopeID string, op ledger.Op, meta string, now time.Time) (ledger.Receipt, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Receipt{}, false, fmt.Errorf("append receipt: begin tx: %w", err)
	}
	defer tx.Rollback()

	// Chain head: most recent receipt for this artifact, or none.
	var prevHash string
	var headCreatedAt int64
	err = tx.QueryRowContext(ctx, `
		SELECT next_hash, created_at
		FROM atlas_receipts
		WHERE artifact_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, artifactID).Scan(&prevHash, &headCreatedAt)
	if err != nil && err != sql.ErrNoRows {
		return ledger.Receipt{}, false, fmt.Errorf("append receipt: read head: %w", err)
	}

	// created_at orders the chain, so it must be strictly increasing along it.
	// A caller-supplied timestamp can trail the head when appends race; clamp
	// it past the head rather than persisting an out-of-order entry.
	createdAt := now
	if createdAt.UnixNano() <= headCreatedAt {
		createdAt = time.Unix(0, headCreatedAt+1)
	}

	r := ledger.Receipt{
		ID:           id,
		ArtifactID:   artifactID,
		Op:           op,
		PrevHash:     prevHash,
		ActorScopeID: actorScopeID,
		Meta:         meta,
		CreatedAt:    createdAt,
	}
	r.NextHash, err = ledger.DigestReceipt(r)
	if err != nil {
		return ledger.Receipt{}, false, fmt.Errorf("append receipt: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO atlas_receipts
		(id, artifact_id, op, prev_hash, next_hash, actor_scope_id, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.ArtifactID, string(r.Op), r.PrevHash, r.NextHash,
		r.ActorScopeID, r.Meta, r.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost the head race; caller retries with the new head.
			return ledger.Receipt{}, false, nil
		}
		return ledger.Receipt{}, false, fmt.Errorf("append receipt: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.Receipt{}, false, fmt.Errorf("append receipt: commit: %w", err)
	}

	return r, true, nil
}

// GetReceipt retrieves a receipt by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetReceipt(ctx context.Context, id string) (ledger.Receipt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, artifact_id, op, prev_hash, next_hash, actor_scope_id, meta, created_at
		FROM atlas_receipts
		WHERE id = ?
	`, id)
	return scanReceipt(row)
}

// ListReceiptsByArtifact returns an artifact's receipts in chain order
// (created_at ascending, id ascending for ties).
func (s *Store) ListReceiptsByArtifact(ctx context.Context, artifactID string) ([]ledger.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, artifact_id, op, prev_hash, next_hash, actor_scope_id, meta, created_at
		FROM atlas_receipts
		WHERE artifact_id = ?
		ORDER BY created_at ASC, id ASC
	`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []ledger.Receipt{}
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	return receipts, nil
}

// ListArtifactIDs returns the distinct artifact IDs present in the ledger.
// Used by chain audits that walk every chain.
func (s *Store) ListArtifactIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT artifact_id FROM atlas_receipts ORDER BY artifact_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query artifact ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan artifact id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifact ids: %w", err)
	}

	return ids, nil
}

func scanReceipt(row rowScanner) (ledger.Receipt, error) {
	var r ledger.Receipt
	var op string
	var createdAt int64

	err := row.Scan(&r.ID, &r.ArtifactID, &op, &r.PrevHash, &r.NextHash, &r.ActorScopeID, &r.Meta, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ledger.Receipt{}, err
		}
		return ledger.Receipt{}, fmt.Errorf("scan receipt: %w", err)
	}

	r.Op = ledger.Op(op)
	r.CreatedAt = time.Unix(0, createdAt)

	return r, nil
}
