package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/atlaslabs/atlasflow/internal/flow"
)

// StepParams are the caller-supplied fields of a new step.
// All fields are optional; a step with no target artifact executes as a
// receipt-less no-op.
type StepParams struct {
	SourceArtifactID string
	TargetArtifactID string
	AdapterID        string
	Payload          json.RawMessage
}

// AddStep appends a step to a flow with the next step order.
//
// No ownership check happens here - callers must have already authorized the
// flow (ownership is enforced at the flow store and executor boundaries).
// Step adding is deliberately not gated by flow status: steps are inert until
// execution, and execution is gated.
func (e *Engine) AddStep(ctx context.Context, flowID string, params StepParams) (flow.Step, error) {
	if len(params.Payload) > 0 && !json.Valid(params.Payload) {
		return flow.Step{}, NewValidationError("step payload is not valid JSON")
	}

	if _, err := e.store.GetFlow(ctx, flowID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flow.Step{}, NewNotFoundError("flow", flowID)
		}
		return flow.Step{}, NewStorageError("get flow", err)
	}

	st := flow.Step{
		ID:               e.ids.Generate(),
		FlowID:           flowID,
		SourceArtifactID: params.SourceArtifactID,
		TargetArtifactID: params.TargetArtifactID,
		AdapterID:        params.AdapterID,
		Payload:          params.Payload,
		CreatedAt:        e.clock.Now(),
	}

	st, err := e.store.AppendStep(ctx, st)
	if err != nil {
		return flow.Step{}, NewStorageError("append step", err)
	}

	e.log.Debug("step added", "flow_id", flowID, "step_id", st.ID, "step_order", st.StepOrder)
	return st, nil
}
