package ledger

import (
	"errors"
	"fmt"
)

// ChainError reports the first point at which a receipt chain fails
// verification. Index is the position within the chain ordered by CreatedAt.
type ChainError struct {
	Index     int
	ReceiptID string
	Reason    string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("receipt chain broken at index %d (receipt %s): %s", e.Index, e.ReceiptID, e.Reason)
}

// IsChainError reports whether err is a chain verification failure.
func IsChainError(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce)
}

// VerifyChain checks chain integrity for receipts belonging to one artifact,
// ordered by CreatedAt ascending:
//
//   - receipts[0].PrevHash must be empty
//   - receipts[i].PrevHash must equal receipts[i-1].NextHash
//   - every NextHash must match the digest recomputed from stored fields
//
// Returns nil for an empty chain. On failure returns a *ChainError naming the
// first offending receipt; all subsequent digests are necessarily invalid too.
func VerifyChain(receipts []Receipt) error {
	for i, r := range receipts {
		if i == 0 {
			if r.PrevHash != "" {
				return &ChainError{Index: 0, ReceiptID: r.ID, Reason: "first receipt has non-empty prevHash"}
			}
		} else {
			if r.ArtifactID != receipts[0].ArtifactID {
				return &ChainError{Index: i, ReceiptID: r.ID,
					Reason: fmt.Sprintf("artifact mismatch: %s vs %s", r.ArtifactID, receipts[0].ArtifactID)}
			}
			if r.PrevHash != receipts[i-1].NextHash {
				return &ChainError{Index: i, ReceiptID: r.ID, Reason: "prevHash does not match predecessor nextHash"}
			}
		}

		want, err := DigestReceipt(r)
		if err != nil {
			return &ChainError{Index: i, ReceiptID: r.ID, Reason: fmt.Sprintf("digest: %v", err)}
		}
		if r.NextHash != want {
			return &ChainError{Index: i, ReceiptID: r.ID, Reason: "stored nextHash does not match recomputed digest"}
		}
	}
	return nil
}
