// Package ledger implements the per-artifact hash-chained receipt ledger:
// canonical serialization, digest computation, and chain verification.
//
// Each artifact's receipts form a linear chain: receipt[i].PrevHash equals
// receipt[i-1].NextHash, and the first receipt carries an empty PrevHash.
// NextHash is a domain-separated SHA-256 digest over the receipt's own content
// concatenated with PrevHash, so tampering with any historical entry breaks
// every digest after it.
package ledger

import (
	"fmt"
	"time"
)

// Op is the fixed vocabulary of artifact mutations a receipt can record.
type Op string

const (
	OpCreateDoc   Op = "createDoc"
	OpInsertText  Op = "insertText"
	OpDeleteRange Op = "deleteRange"
	OpSetCell     Op = "setCell"
	OpAppendRow   Op = "appendRow"
	OpExportSheet Op = "exportSheet"
)

// ValidOp reports whether op is in the receipt operation vocabulary.
func ValidOp(op Op) bool {
	switch op {
	case OpCreateDoc, OpInsertText, OpDeleteRange, OpSetCell, OpAppendRow, OpExportSheet:
		return true
	}
	return false
}

// Receipt is one immutable, hash-chained audit entry for a mutation to an
// artifact. Receipts are append-only: never mutated, deleted, or retracted.
type Receipt struct {
	ID         string
	ArtifactID string
	Op         Op

	// PrevHash is the NextHash of the previous receipt for the same artifact,
	// or empty for the first receipt in a chain.
	PrevHash string

	// NextHash is the digest over this receipt's content plus PrevHash.
	NextHash string

	ActorScopeID string

	// Meta is canonical JSON text (RFC 8785). The stored text participates in
	// the digest as-is, so verification never reparses it.
	Meta string

	CreatedAt time.Time
}

// MarshalMeta converts a meta map to the canonical JSON text stored and hashed
// with a receipt. A nil map yields the empty object.
func MarshalMeta(meta map[string]any) (string, error) {
	if meta == nil {
		meta = map[string]any{}
	}
	data, err := MarshalCanonical(meta)
	if err != nil {
		return "", fmt.Errorf("marshal receipt meta: %w", err)
	}
	return string(data), nil
}
