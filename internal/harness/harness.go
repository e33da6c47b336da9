// Package harness executes YAML conformance scenarios against a real engine
// backed by a fresh in-memory database. Scenarios run with a sequential ID
// generator and a stepped clock, so traces - and the receipt digests behind
// them - are fully reproducible across runs.
package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/atlaslabs/atlasflow/internal/engine"
	"github.com/atlaslabs/atlasflow/internal/flow"
	"github.com/atlaslabs/atlasflow/internal/store"
	"github.com/atlaslabs/atlasflow/internal/testutil"
)

// clockOrigin anchors every scenario's stepped clock.
var clockOrigin = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// Harness drives one scenario against one engine instance.
type Harness struct {
	eng   *engine.Engine
	scope flow.WalletScope

	// flowIDs maps scenario flow names to created flow IDs.
	flowIDs map[string]string
}

// Run executes a scenario in a fresh in-memory database and returns the
// result. Action failures that the scenario did not declare, and expectation
// mismatches, are collected as result errors rather than aborting the run.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(st,
		engine.WithIDGenerator(testutil.NewSequenceGenerator("atlas")),
		engine.WithClock(engine.NewSteppedClock(clockOrigin, time.Millisecond)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	ctx := context.Background()
	result := NewResult()

	h := &Harness{eng: eng, flowIDs: make(map[string]string, len(scenario.Flows))}

	if err := h.setup(ctx, scenario, result); err != nil {
		return nil, err
	}
	h.runActions(ctx, scenario, result)
	h.evaluateExpect(ctx, scenario, result)

	return result, nil
}

// setup resolves the scope, registers adapters, and builds flows with their
// steps. Setup failures abort the run: the scenario's preconditions are
// malformed, not under test.
func (h *Harness) setup(ctx context.Context, scenario *Scenario, result *Result) error {
	scope, err := h.eng.ResolveScope(ctx, scenario.Scope.Wallet, scenario.Scope.Session, scenario.Scope.Profile)
	if err != nil {
		return fmt.Errorf("resolve scope: %w", err)
	}
	h.scope = scope
	result.addEvent(TraceEvent{Event: "scope_resolved"})

	for _, a := range scenario.Adapters {
		params := engine.RegisterAdapterParams{
			AdapterID:   a.AdapterID,
			Name:        a.Name,
			Version:     a.Version,
			Description: a.Description,
		}
		if a.Config != nil {
			raw, err := json.Marshal(a.Config)
			if err != nil {
				return fmt.Errorf("adapter %s: encode config: %w", a.AdapterID, err)
			}
			params.Config = raw
		}
		if _, err := h.eng.RegisterAdapter(ctx, params); err != nil {
			return fmt.Errorf("register adapter %s: %w", a.AdapterID, err)
		}
		result.addEvent(TraceEvent{Event: "adapter_registered", Adapter: a.AdapterID})
	}

	for _, fs := range scenario.Flows {
		f, err := h.eng.CreateFlow(ctx, h.scope, fs.Name, fs.Artifacts)
		if err != nil {
			return fmt.Errorf("create flow %s: %w", fs.Name, err)
		}
		h.flowIDs[fs.Name] = f.ID
		result.addEvent(TraceEvent{Event: "flow_created", Flow: fs.Name, Status: string(f.Status)})

		for i, ss := range fs.Steps {
			params := engine.StepParams{
				SourceArtifactID: ss.Source,
				TargetArtifactID: ss.Target,
				AdapterID:        ss.Adapter,
			}
			if ss.Payload != nil {
				raw, err := json.Marshal(ss.Payload)
				if err != nil {
					return fmt.Errorf("flow %s step %d: encode payload: %w", fs.Name, i, err)
				}
				params.Payload = raw
			}
			st, err := h.eng.AddStep(ctx, f.ID, params)
			if err != nil {
				return fmt.Errorf("flow %s step %d: %w", fs.Name, i, err)
			}
			result.addEvent(TraceEvent{Event: "step_added", Flow: fs.Name, Order: st.StepOrder})
		}
	}

	return nil
}

// runActions applies the scenario's lifecycle verbs. Each action's outcome is
// traced; a mismatch against the declared error code fails the result.
func (h *Harness) runActions(ctx context.Context, scenario *Scenario, result *Result) {
	for i, act := range scenario.Actions {
		flowID := h.flowIDs[act.Flow]
		ev := TraceEvent{Event: act.Op, Flow: act.Flow}

		var err error
		switch act.Op {
		case OpExecute:
			var res engine.ExecutionResult
			res, err = h.eng.Execute(ctx, flowID, h.scope)
			if err == nil {
				ev.Status = string(res.Flow.Status)
				ev.Receipts = len(res.Receipts)
			}
		case OpCancel:
			var f flow.Flow
			f, err = h.eng.CancelFlow(ctx, flowID, h.scope)
			if err == nil {
				ev.Status = string(f.Status)
			}
		case OpDelete:
			err = h.eng.DeleteFlow(ctx, flowID, h.scope)
		}

		ev.Error = errorCode(err)
		result.addEvent(ev)

		if ev.Error != act.Error {
			if act.Error == "" {
				result.AddError("actions[%d] %s %s: unexpected error %v", i, act.Op, act.Flow, err)
			} else {
				result.AddError("actions[%d] %s %s: want error %s, got %v", i, act.Op, act.Flow, act.Error, err)
			}
		}
	}
}

// evaluateExpect checks final flow statuses, receipt counts, and optionally
// audits every receipt chain.
func (h *Harness) evaluateExpect(ctx context.Context, scenario *Scenario, result *Result) {
	for name, want := range scenario.Expect.Flows {
		detail, err := h.eng.GetFlow(ctx, h.flowIDs[name])

		if want.Status == StatusDeleted {
			if !engine.IsNotFound(err) {
				result.AddError("expect.flows[%s]: want deleted, got %v", name, err)
			}
			continue
		}
		if err != nil {
			result.AddError("expect.flows[%s]: %v", name, err)
			continue
		}
		if string(detail.Flow.Status) != want.Status {
			result.AddError("expect.flows[%s]: want status %s, got %s", name, want.Status, detail.Flow.Status)
		}
		if want.Steps != 0 && len(detail.Steps) != want.Steps {
			result.AddError("expect.flows[%s]: want %d steps, got %d", name, want.Steps, len(detail.Steps))
		}
	}

	for artifactID, want := range scenario.Expect.Receipts {
		receipts, err := h.eng.ArtifactReceipts(ctx, artifactID)
		if err != nil {
			result.AddError("expect.receipts[%s]: %v", artifactID, err)
			continue
		}
		if len(receipts) != want {
			result.AddError("expect.receipts[%s]: want %d receipts, got %d", artifactID, want, len(receipts))
		}
	}

	if scenario.Expect.VerifyChains {
		audits, err := h.eng.VerifyAllArtifacts(ctx)
		if err != nil {
			result.AddError("verify chains: %v", err)
			return
		}
		for _, a := range audits {
			if a.Err != nil {
				result.AddError("verify chains: artifact %s: %v", a.ArtifactID, a.Err)
			}
		}
	}
}

// errorCode extracts the engine error code, or "" for nil errors.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var oe *engine.Error
	if errors.As(err, &oe) {
		return string(oe.Code)
	}
	return "ERROR"
}
