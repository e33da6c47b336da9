package flow

import (
	"strings"
	"time"
)

// WalletScope is the resolved identity of an authenticated actor within a
// session. Scopes are created lazily on first flow operation, are unique per
// (walletAddress, sessionId), and are never mutated or deleted.
type WalletScope struct {
	ID            string
	WalletAddress string // canonical lower-cased form
	SessionID     string
	ProfileID     string
	CreatedAt     time.Time
}

// NormalizeWalletAddress returns the canonical form of a wallet address:
// trimmed and lower-cased. All storage and lookups use this form so that
// resolution is idempotent regardless of caller casing.
func NormalizeWalletAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
