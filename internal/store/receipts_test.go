package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atlaslabs/atlasflow/internal/ledger"
)

func TestAppendReceiptBuildsChain(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")

	r1, err := s.AppendReceipt(ctx, "rc-1", "art-1", scope.ID, ledger.OpSetCell, `{"cell":"A1"}`, time.Unix(0, 1000))
	if err != nil {
		t.Fatalf("first append: %v", err)
	}
	if r1.PrevHash != "" {
		t.Errorf("first receipt prevHash = %q, want empty", r1.PrevHash)
	}
	if r1.NextHash == "" {
		t.Error("first receipt nextHash empty")
	}

	r2, err := s.AppendReceipt(ctx, "rc-2", "art-1", scope.ID, ledger.OpSetCell, `{"cell":"A2"}`, time.Unix(0, 2000))
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if r2.PrevHash != r1.NextHash {
		t.Errorf("r2.PrevHash = %s, want %s", r2.PrevHash, r1.NextHash)
	}

	receipts, err := s.ListReceiptsByArtifact(ctx, "art-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(receipts) != 2 {
		t.Fatalf("got %d receipts, want 2", len(receipts))
	}
	if err := ledger.VerifyChain(receipts); err != nil {
		t.Errorf("stored chain does not verify: %v", err)
	}
}

func TestAppendReceiptIndependentChains(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")

	if _, err := s.AppendReceipt(ctx, "rc-1", "art-1", scope.ID, ledger.OpCreateDoc, `{}`, time.Unix(0, 1000)); err != nil {
		t.Fatalf("art-1: %v", err)
	}
	r, err := s.AppendReceipt(ctx, "rc-2", "art-2", scope.ID, ledger.OpCreateDoc, `{}`, time.Unix(0, 2000))
	if err != nil {
		t.Fatalf("art-2: %v", err)
	}
	if r.PrevHash != "" {
		t.Errorf("fresh artifact chain prevHash = %q, want empty", r.PrevHash)
	}

	ids, err := s.ListArtifactIDs(ctx)
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(ids) != 2 || ids[0] != "art-1" || ids[1] != "art-2" {
		t.Errorf("artifact ids = %v", ids)
	}
}

func TestAppendReceiptRejectsUnknownOp(t *testing.T) {
	s := openTestStore(t)
	scope := seedScope(t, s, "sc-1")

	_, err := s.AppendReceipt(context.Background(), "rc-1", "art-1", scope.ID, ledger.Op("dropTable"), `{}`, time.Unix(0, 1))
	if err == nil {
		t.Fatal("unknown op accepted")
	}
	if !strings.Contains(err.Error(), "unknown op") {
		t.Errorf("err = %v", err)
	}
}

func TestAppendReceiptConcurrentSameArtifact(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")

	// Distinct timestamps per append: created_at orders the chain.
	const workers = 5
	var mu sync.Mutex
	next := int64(0)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		next++
		return time.Unix(0, next*1000)
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendReceipt(ctx, fmt.Sprintf("rc-%d", i), "art-1", scope.ID, ledger.OpAppendRow, `{}`, clock())
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append: %v", err)
		}
	}

	receipts, err := s.ListReceiptsByArtifact(ctx, "art-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(receipts) != workers {
		t.Fatalf("got %d receipts, want %d", len(receipts), workers)
	}
	if err := ledger.VerifyChain(receipts); err != nil {
		t.Errorf("chain broken after concurrent appends: %v", err)
	}
}

func TestAppendReceiptClampsBackwardsTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")

	if _, err := s.AppendReceipt(ctx, "rc-1", "art-1", scope.ID, ledger.OpSetCell, `{}`, time.Unix(0, 2000)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	r2, err := s.AppendReceipt(ctx, "rc-2", "art-1", scope.ID, ledger.OpSetCell, `{}`, time.Unix(0, 1000))
	if err != nil {
		t.Fatalf("second append: %v", err)
	}
	if r2.CreatedAt.UnixNano() != 2001 {
		t.Errorf("createdAt = %d, want clamped to 2001", r2.CreatedAt.UnixNano())
	}

	receipts, err := s.ListReceiptsByArtifact(ctx, "art-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := ledger.VerifyChain(receipts); err != nil {
		t.Errorf("chain broken after clamped append: %v", err)
	}
}

func TestGetReceipt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")

	want, err := s.AppendReceipt(ctx, "rc-1", "art-1", scope.ID, ledger.OpInsertText, `{"pos":0}`, time.Unix(0, 1000))
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.GetReceipt(ctx, "rc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NextHash != want.NextHash || got.Meta != want.Meta || got.Op != want.Op {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.ActorScopeID != scope.ID {
		t.Errorf("actor = %s, want %s", got.ActorScopeID, scope.ID)
	}
}
