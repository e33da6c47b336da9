package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestGetOrCreateScopeIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, inserted, err := s.GetOrCreateScope(ctx, "sc-1", "0xabc", "sess-1", "prof-1", time.Unix(0, 100))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !inserted {
		t.Error("first call: inserted = false, want true")
	}

	// Second call with a different candidate ID must return the original row.
	second, inserted, err := s.GetOrCreateScope(ctx, "sc-2", "0xabc", "sess-1", "prof-1", time.Unix(0, 200))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if inserted {
		t.Error("second call: inserted = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("second call returned id %s, want %s", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("createdAt changed: %v vs %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestGetOrCreateScopeDistinctSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a, _, err := s.GetOrCreateScope(ctx, "sc-1", "0xabc", "sess-1", "", time.Unix(0, 100))
	if err != nil {
		t.Fatalf("sess-1: %v", err)
	}
	b, inserted, err := s.GetOrCreateScope(ctx, "sc-2", "0xabc", "sess-2", "", time.Unix(0, 200))
	if err != nil {
		t.Fatalf("sess-2: %v", err)
	}
	if !inserted {
		t.Error("new session: inserted = false, want true")
	}
	if a.ID == b.ID {
		t.Error("distinct sessions resolved to the same scope")
	}
}

func TestGetOrCreateScopeConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	insertedCount := 0

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scope, inserted, err := s.GetOrCreateScope(ctx, fmt.Sprintf("cand-%d", i), "0xrace", "sess-1", "", time.Unix(0, int64(i)))
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			mu.Lock()
			ids[i] = scope.ID
			if inserted {
				insertedCount++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if insertedCount != 1 {
		t.Errorf("inserted count = %d, want exactly 1", insertedCount)
	}
	for i := 1; i < workers; i++ {
		if ids[i] != ids[0] {
			t.Errorf("worker %d got scope %s, worker 0 got %s", i, ids[i], ids[0])
		}
	}
}

func TestGetScopeNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetScope(context.Background(), "missing")
	if err != sql.ErrNoRows {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}
