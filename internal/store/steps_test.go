package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

func TestAppendStepAssignsContiguousOrders(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")
	f := seedFlow(t, s, scope.ID, "fl-1")

	for i := 1; i <= 4; i++ {
		st, err := s.AppendStep(ctx, flow.Step{
			ID:        fmt.Sprintf("st-%d", i),
			FlowID:    f.ID,
			CreatedAt: time.Unix(0, int64(i)),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if st.StepOrder != int64(i) {
			t.Errorf("step %d got order %d", i, st.StepOrder)
		}
	}
}

func TestAppendStepPerFlowOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")
	fa := seedFlow(t, s, scope.ID, "fl-a")
	fb := seedFlow(t, s, scope.ID, "fl-b")

	// Orders are independent sequences per flow.
	for i, flowID := range []string{fa.ID, fb.ID, fa.ID, fb.ID} {
		st, err := s.AppendStep(ctx, flow.Step{
			ID:        fmt.Sprintf("st-%d", i),
			FlowID:    flowID,
			CreatedAt: time.Unix(0, int64(i)),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		wantOrder := int64(i/2 + 1)
		if st.StepOrder != wantOrder {
			t.Errorf("append %d: order = %d, want %d", i, st.StepOrder, wantOrder)
		}
	}
}

func TestAppendStepConcurrent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")
	f := seedFlow(t, s, scope.ID, "fl-1")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendStep(ctx, flow.Step{
				ID:        fmt.Sprintf("st-%d", i),
				FlowID:    f.ID,
				CreatedAt: time.Unix(0, int64(i)),
			})
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

	steps, err := s.ListSteps(ctx, f.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(steps) != workers {
		t.Fatalf("got %d steps, want %d", len(steps), workers)
	}
	for i, st := range steps {
		if st.StepOrder != int64(i+1) {
			t.Errorf("steps[%d].StepOrder = %d, want %d", i, st.StepOrder, i+1)
		}
	}
}

func TestStepPayloadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")
	f := seedFlow(t, s, scope.ID, "fl-1")

	payload := json.RawMessage(`{"cell":"A1","value":42}`)
	if _, err := s.AppendStep(ctx, flow.Step{
		ID: "st-1", FlowID: f.ID,
		SourceArtifactID: "src-1", TargetArtifactID: "tgt-1", AdapterID: "ad-1",
		Payload: payload, CreatedAt: time.Unix(0, 1),
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := s.GetStep(ctx, "st-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("payload = %s, want %s", got.Payload, payload)
	}
	if got.SourceArtifactID != "src-1" || got.TargetArtifactID != "tgt-1" || got.AdapterID != "ad-1" {
		t.Errorf("step fields = %+v", got)
	}

	// Empty payload scans back as nil, not "".
	if _, err := s.AppendStep(ctx, flow.Step{ID: "st-2", FlowID: f.ID, CreatedAt: time.Unix(0, 2)}); err != nil {
		t.Fatalf("append empty: %v", err)
	}
	empty, err := s.GetStep(ctx, "st-2")
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if empty.Payload != nil {
		t.Errorf("empty payload = %q, want nil", empty.Payload)
	}
}

func TestSetStepReceiptOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	scope := seedScope(t, s, "sc-1")
	f := seedFlow(t, s, scope.ID, "fl-1")

	if _, err := s.AppendStep(ctx, flow.Step{ID: "st-1", FlowID: f.ID, CreatedAt: time.Unix(0, 1)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := s.SetStepReceipt(ctx, "st-1", "rc-1"); err != nil {
		t.Fatalf("first set: %v", err)
	}

	err := s.SetStepReceipt(ctx, "st-1", "rc-2")
	if err == nil {
		t.Fatal("second set succeeded, want error")
	}
	if !strings.Contains(err.Error(), "already linked") {
		t.Errorf("err = %v", err)
	}

	got, err := s.GetStep(ctx, "st-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ReceiptID != "rc-1" {
		t.Errorf("receiptID = %s, want rc-1", got.ReceiptID)
	}
}
