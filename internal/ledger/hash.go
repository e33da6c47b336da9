package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainReceipt is the domain-separation prefix for receipt digests.
// The version suffix enables future algorithm migration.
const DomainReceipt = "atlas/receipt/v1"

// Digest computes a receipt's NextHash.
//
// Format: SHA256(domain + 0x00 + content + 0x00 + prevHash) where content is
// the canonical JSON of {artifact_id, created_at, meta, op}. The null byte
// separators prevent boundary ambiguity between domain, content, and chain
// linkage. createdAt enters the digest as Unix nanoseconds.
//
// meta must already be canonical JSON text (see MarshalMeta); it is hashed as
// a string so stored rows can be verified without reparsing.
func Digest(artifactID string, createdAtUnixNano int64, meta string, op Op, prevHash string) (string, error) {
	content, err := MarshalCanonical(map[string]any{
		"artifact_id": artifactID,
		"created_at":  createdAtUnixNano,
		"meta":        meta,
		"op":          string(op),
	})
	if err != nil {
		return "", fmt.Errorf("receipt digest: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainReceipt))
	h.Write([]byte{0x00})
	h.Write(content)
	h.Write([]byte{0x00})
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestReceipt recomputes NextHash from a receipt's stored fields.
func DigestReceipt(r Receipt) (string, error) {
	return Digest(r.ArtifactID, r.CreatedAt.UnixNano(), r.Meta, r.Op, r.PrevHash)
}
