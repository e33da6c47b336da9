package engine

import (
	"context"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// ResolveScope maps a (walletAddress, sessionID) pair to its durable wallet
// scope, creating one on first use. The address is canonicalized to lower
// case before lookup, so resolution is idempotent regardless of caller
// casing: repeated calls with identical inputs return the same scope ID and
// never create duplicate rows.
//
// profileID is recorded only when the scope is first created; an existing
// scope is never mutated.
func (e *Engine) ResolveScope(ctx context.Context, walletAddress, sessionID, profileID string) (flow.WalletScope, error) {
	addr := flow.NormalizeWalletAddress(walletAddress)
	if addr == "" {
		return flow.WalletScope{}, NewValidationError("wallet address is required")
	}
	if sessionID == "" {
		return flow.WalletScope{}, NewValidationError("session id is required")
	}

	scope, inserted, err := e.store.GetOrCreateScope(ctx, e.ids.Generate(), addr, sessionID, profileID, e.clock.Now())
	if err != nil {
		return flow.WalletScope{}, NewStorageError("resolve scope", err)
	}

	if inserted {
		e.log.Debug("wallet scope created",
			"scope_id", scope.ID,
			"wallet", scope.WalletAddress,
			"session", scope.SessionID)
	}

	return scope, nil
}
