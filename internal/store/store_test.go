package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s
}

// seedScope creates a wallet scope most fixtures hang off.
func seedScope(t *testing.T, s *Store, id string) flow.WalletScope {
	t.Helper()
	scope, _, err := s.GetOrCreateScope(context.Background(), id, "0x"+id, "sess-"+id, "", time.Unix(0, 1000))
	if err != nil {
		t.Fatalf("seed scope: %v", err)
	}
	return scope
}

func seedFlow(t *testing.T, s *Store, scopeID, id string) flow.Flow {
	t.Helper()
	f := flow.Flow{
		ID:            id,
		WalletScopeID: scopeID,
		Name:          "flow " + id,
		Status:        flow.StatusPending,
		CreatedAt:     time.Unix(0, 2000),
		UpdatedAt:     time.Unix(0, 2000),
	}
	if err := s.InsertFlow(context.Background(), f); err != nil {
		t.Fatalf("seed flow: %v", err)
	}
	return f
}

func TestOpenAppliesSchema(t *testing.T) {
	s := openTestStore(t)

	var version int
	if err := s.DB().QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}

	for _, table := range []string{"wallet_scopes", "orchestration_flows", "orchestration_steps", "orchestration_adapters", "atlas_receipts"} {
		var name string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	seedScope(t, s1, "sc-1")
	if err := s1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	scope, err := s2.GetScope(context.Background(), "sc-1")
	if err != nil {
		t.Fatalf("scope did not survive reopen: %v", err)
	}
	if scope.WalletAddress != "0xsc-1" {
		t.Errorf("wallet address = %q", scope.WalletAddress)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	s := openTestStore(t)

	f := flow.Flow{
		ID:            "orphan",
		WalletScopeID: "no-such-scope",
		Name:          "orphan",
		Status:        flow.StatusPending,
		CreatedAt:     time.Unix(0, 1),
		UpdatedAt:     time.Unix(0, 1),
	}
	if err := s.InsertFlow(context.Background(), f); err == nil {
		t.Error("flow with unknown scope inserted, want FK violation")
	}
}

func TestStatusCheckConstraint(t *testing.T) {
	s := openTestStore(t)
	scope := seedScope(t, s, "sc-1")

	f := flow.Flow{
		ID:            "bad-status",
		WalletScopeID: scope.ID,
		Name:          "bad",
		Status:        flow.Status("paused"),
		CreatedAt:     time.Unix(0, 1),
		UpdatedAt:     time.Unix(0, 1),
	}
	if err := s.InsertFlow(context.Background(), f); err == nil {
		t.Error("flow with unknown status inserted, want CHECK violation")
	}
}
