package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// FlowDetail bundles a flow with its ordered steps.
type FlowDetail struct {
	Flow  flow.Flow
	Steps []flow.Step
}

// CreateFlow inserts a new flow owned by scope, in status pending.
func (e *Engine) CreateFlow(ctx context.Context, scope flow.WalletScope, name string, linkedArtifactIDs []string) (flow.Flow, error) {
	if name == "" {
		return flow.Flow{}, NewValidationError("flow name is required")
	}
	if scope.ID == "" {
		return flow.Flow{}, NewValidationError("wallet scope is required")
	}

	now := e.clock.Now()
	f := flow.Flow{
		ID:                e.ids.Generate(),
		WalletScopeID:     scope.ID,
		Name:              name,
		Status:            flow.StatusPending,
		LinkedArtifactIDs: linkedArtifactIDs,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := e.store.InsertFlow(ctx, f); err != nil {
		return flow.Flow{}, NewStorageError("create flow", err)
	}

	e.log.Info("flow created", "flow_id", f.ID, "name", f.Name, "scope_id", scope.ID)
	return f, nil
}

// GetFlow returns a flow and its steps ordered by step order.
func (e *Engine) GetFlow(ctx context.Context, flowID string) (FlowDetail, error) {
	f, err := e.store.GetFlow(ctx, flowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FlowDetail{}, NewNotFoundError("flow", flowID)
		}
		return FlowDetail{}, NewStorageError("get flow", err)
	}

	steps, err := e.store.ListSteps(ctx, flowID)
	if err != nil {
		return FlowDetail{}, NewStorageError("get flow steps", err)
	}

	return FlowDetail{Flow: f, Steps: steps}, nil
}

// ListFlows returns all flows owned by scope, newest-updated first.
func (e *Engine) ListFlows(ctx context.Context, scope flow.WalletScope) ([]flow.Flow, error) {
	flows, err := e.store.ListFlowsByScope(ctx, scope.ID)
	if err != nil {
		return nil, NewStorageError("list flows", err)
	}
	return flows, nil
}

// CancelFlow transitions a pending flow to cancelled.
//
// Cancellation is only legal while the flow is pending; it does not interrupt
// an in-flight execution - a flow that has started runs to completion or
// failure.
func (e *Engine) CancelFlow(ctx context.Context, flowID string, scope flow.WalletScope) (flow.Flow, error) {
	f, err := e.loadOwnedFlow(ctx, flowID, scope)
	if err != nil {
		return flow.Flow{}, err
	}

	if f.Status != flow.StatusPending {
		return flow.Flow{}, NewInvalidStateError(flowID, cancelStateReason(f.Status))
	}

	ok, err := e.store.UpdateFlowStatus(ctx, flowID, flow.StatusPending, flow.StatusCancelled, e.clock.Now())
	if err != nil {
		return flow.Flow{}, NewStorageError("cancel flow", err)
	}
	if !ok {
		// Lost a race with execute or another cancel; report the state that won.
		return flow.Flow{}, e.invalidStateFromCurrent(ctx, flowID, cancelStateReason)
	}

	f, err = e.store.GetFlow(ctx, flowID)
	if err != nil {
		return flow.Flow{}, NewStorageError("cancel flow: reread", err)
	}

	e.log.Info("flow cancelled", "flow_id", flowID)
	return f, nil
}

// DeleteFlow removes a flow and its steps. Illegal while the flow is running.
// Receipts already written for the flow's steps are ledger entries, not flow
// rows - they are never deleted.
func (e *Engine) DeleteFlow(ctx context.Context, flowID string, scope flow.WalletScope) error {
	f, err := e.loadOwnedFlow(ctx, flowID, scope)
	if err != nil {
		return err
	}

	if f.Status == flow.StatusRunning {
		return NewInvalidStateError(flowID, "flow is running")
	}

	if err := e.store.DeleteFlow(ctx, flowID); err != nil {
		return NewStorageError("delete flow", err)
	}

	e.log.Info("flow deleted", "flow_id", flowID)
	return nil
}

// loadOwnedFlow loads a flow and enforces ownership.
func (e *Engine) loadOwnedFlow(ctx context.Context, flowID string, scope flow.WalletScope) (flow.Flow, error) {
	f, err := e.store.GetFlow(ctx, flowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flow.Flow{}, NewNotFoundError("flow", flowID)
		}
		return flow.Flow{}, NewStorageError("get flow", err)
	}

	if f.WalletScopeID != scope.ID {
		return flow.Flow{}, NewUnauthorizedError(flowID)
	}

	return f, nil
}

// invalidStateFromCurrent re-reads a flow after a lost conditional update and
// builds the INVALID_STATE error for its current status.
func (e *Engine) invalidStateFromCurrent(ctx context.Context, flowID string, reason func(flow.Status) string) error {
	f, err := e.store.GetFlow(ctx, flowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewNotFoundError("flow", flowID)
		}
		return NewStorageError("get flow", err)
	}
	return NewInvalidStateError(flowID, reason(f.Status))
}

func cancelStateReason(s flow.Status) string {
	switch s {
	case flow.StatusRunning:
		return "flow is running"
	case flow.StatusCompleted:
		return "flow already completed"
	case flow.StatusCancelled:
		return "flow already cancelled"
	case flow.StatusFailed:
		return "flow already failed"
	}
	return fmt.Sprintf("flow in unexpected state %q", s)
}
