package store

import (
	"context"
	"fmt"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// GetOrCreateScope resolves a wallet scope by (walletAddress, sessionID),
// inserting a new row if none exists. walletAddress must already be in
// canonical lower-cased form.
//
// Idempotent under concurrency: the UNIQUE(wallet_address, session_id)
// constraint plus ON CONFLICT DO NOTHING guarantees a single row per pair;
// losers of an insert race read the winner's row. Returns inserted=true only
// when this call created the scope.
func (s *Store) GetOrCreateScope(ctx context.Context, id, walletAddress, sessionID, profileID string, now time.Time) (flow.WalletScope, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return flow.WalletScope{}, false, fmt.Errorf("get or create scope: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_scopes (id, wallet_address, session_id, profile_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(wallet_address, session_id) DO NOTHING
	`, id, walletAddress, sessionID, profileID, now.UnixNano())
	if err != nil {
		return flow.WalletScope{}, false, fmt.Errorf("get or create scope: insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return flow.WalletScope{}, false, fmt.Errorf("get or create scope: rows affected: %w", err)
	}

	var scope flow.WalletScope
	var createdAt int64
	err = tx.QueryRowContext(ctx, `
		SELECT id, wallet_address, session_id, profile_id, created_at
		FROM wallet_scopes
		WHERE wallet_address = ? AND session_id = ?
	`, walletAddress, sessionID).Scan(
		&scope.ID, &scope.WalletAddress, &scope.SessionID, &scope.ProfileID, &createdAt,
	)
	if err != nil {
		return flow.WalletScope{}, false, fmt.Errorf("get or create scope: select: %w", err)
	}
	scope.CreatedAt = time.Unix(0, createdAt)

	if err := tx.Commit(); err != nil {
		return flow.WalletScope{}, false, fmt.Errorf("get or create scope: commit: %w", err)
	}

	return scope, rowsAffected > 0, nil
}

// GetScope retrieves a wallet scope by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) GetScope(ctx context.Context, id string) (flow.WalletScope, error) {
	var scope flow.WalletScope
	var createdAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, wallet_address, session_id, profile_id, created_at
		FROM wallet_scopes
		WHERE id = ?
	`, id).Scan(&scope.ID, &scope.WalletAddress, &scope.SessionID, &scope.ProfileID, &createdAt)
	if err != nil {
		return flow.WalletScope{}, err
	}
	scope.CreatedAt = time.Unix(0, createdAt)
	return scope, nil
}
