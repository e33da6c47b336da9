package engine

import (
	"context"
	"time"

	"github.com/atlaslabs/atlasflow/internal/flow"
	"github.com/atlaslabs/atlasflow/internal/ledger"
)

// ExecutionResult is the outcome of a successful Execute call.
type ExecutionResult struct {
	Flow        flow.Flow
	Steps       []flow.Step
	Receipts    []ledger.Receipt
	CompletedAt time.Time
}

// Execute runs a flow's steps in order and drives the flow state machine to
// completed or failed.
//
// Entry is guarded by a conditional pending→running update persisted before
// any step work, so a crash mid-execution leaves the flow observably running
// rather than pending, and concurrent Execute calls for the same flow cannot
// both enter. Each step that targets an artifact appends one hash-chained
// receipt (fixed op setCell, meta carrying the step coordinates) and links the
// receipt ID back onto the step. Steps without a target artifact are no-ops at
// this layer - adapter invocation is the adapter host's concern.
//
// Execution is strictly sequential in step order: flows model pipelines, not
// parallel fan-out, so receipts for a shared artifact land in step order.
//
// On any step failure the flow transitions to failed and the causal error is
// returned unchanged; receipts already appended are not retracted, leaving an
// internally consistent chain prefix. The whole sequence is deliberately not
// one transaction - a crash between a step's receipt and the final completed
// transition leaves the flow running with partial receipts for external
// reconciliation.
func (e *Engine) Execute(ctx context.Context, flowID string, scope flow.WalletScope) (ExecutionResult, error) {
	f, err := e.loadOwnedFlow(ctx, flowID, scope)
	if err != nil {
		return ExecutionResult{}, err
	}

	if f.Status != flow.StatusPending {
		return ExecutionResult{}, NewInvalidStateError(flowID, executeStateReason(f.Status))
	}

	ok, err := e.store.UpdateFlowStatus(ctx, flowID, flow.StatusPending, flow.StatusRunning, e.clock.Now())
	if err != nil {
		return ExecutionResult{}, NewStorageError("start flow", err)
	}
	if !ok {
		// Another execute or a cancel won the transition.
		return ExecutionResult{}, e.invalidStateFromCurrent(ctx, flowID, executeStateReason)
	}

	e.log.Info("flow execution started", "flow_id", flowID, "scope_id", scope.ID)

	receipts, err := e.runSteps(ctx, flowID, scope)
	if err != nil {
		e.failFlow(ctx, flowID)
		return ExecutionResult{}, err
	}

	completedAt := e.clock.Now()
	ok, err = e.store.UpdateFlowStatus(ctx, flowID, flow.StatusRunning, flow.StatusCompleted, completedAt)
	if err != nil {
		e.failFlow(ctx, flowID)
		return ExecutionResult{}, NewStorageError("complete flow", err)
	}
	if !ok {
		return ExecutionResult{}, e.invalidStateFromCurrent(ctx, flowID, executeStateReason)
	}

	f, err = e.store.GetFlow(ctx, flowID)
	if err != nil {
		return ExecutionResult{}, NewStorageError("reread flow", err)
	}
	steps, err := e.store.ListSteps(ctx, flowID)
	if err != nil {
		return ExecutionResult{}, NewStorageError("reread steps", err)
	}

	e.log.Info("flow execution completed",
		"flow_id", flowID,
		"steps", len(steps),
		"receipts", len(receipts))

	return ExecutionResult{
		Flow:        f,
		Steps:       steps,
		Receipts:    receipts,
		CompletedAt: completedAt,
	}, nil
}

// runSteps walks the flow's steps in step order, appending one receipt per
// step that targets an artifact.
func (e *Engine) runSteps(ctx context.Context, flowID string, scope flow.WalletScope) ([]ledger.Receipt, error) {
	steps, err := e.store.ListSteps(ctx, flowID)
	if err != nil {
		return nil, NewStorageError("list steps", err)
	}

	receipts := []ledger.Receipt{}
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return nil, NewStorageError("execution interrupted", err)
		}

		if st.TargetArtifactID == "" {
			continue
		}

		meta := map[string]any{
			"flow_id":    flowID,
			"step_id":    st.ID,
			"step_order": st.StepOrder,
			"adapter_id": st.AdapterID,
			"payload":    string(st.Payload),
		}
		metaJSON, err := ledger.MarshalMeta(meta)
		if err != nil {
			return nil, NewStorageError("marshal step meta", err)
		}

		r, err := e.store.AppendReceipt(ctx,
			e.ids.Generate(), st.TargetArtifactID, scope.ID,
			ledger.OpSetCell, metaJSON, e.clock.Now())
		if err != nil {
			return nil, NewStorageError("append receipt", err)
		}

		if err := e.store.SetStepReceipt(ctx, st.ID, r.ID); err != nil {
			return nil, NewStorageError("link receipt", err)
		}

		receipts = append(receipts, r)
	}

	return receipts, nil
}

// failFlow transitions a running flow to failed. Best-effort: the causal
// error is already on its way to the caller, so a failure here is only logged.
func (e *Engine) failFlow(ctx context.Context, flowID string) {
	ok, err := e.store.UpdateFlowStatus(ctx, flowID, flow.StatusRunning, flow.StatusFailed, e.clock.Now())
	if err != nil {
		e.log.Error("failed to mark flow failed", "flow_id", flowID, "error", err)
		return
	}
	if !ok {
		e.log.Error("flow left running state before failure transition", "flow_id", flowID)
		return
	}
	e.log.Warn("flow execution failed", "flow_id", flowID)
}

func executeStateReason(s flow.Status) string {
	switch s {
	case flow.StatusRunning:
		return "flow already running"
	case flow.StatusCompleted:
		return "flow already completed"
	case flow.StatusCancelled:
		return "flow cancelled"
	case flow.StatusFailed:
		return "flow already failed"
	}
	return "flow in unexpected state " + string(s)
}
