package testutil

import (
	"testing"

	"github.com/atlaslabs/atlasflow/internal/store"
)

// OpenStore opens a fresh in-memory database with the schema applied and
// registers cleanup on t.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}
