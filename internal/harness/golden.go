package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/atlaslabs/atlasflow/internal/ledger"
)

// RunWithGolden executes a scenario and compares its trace against the golden
// file testdata/golden/<scenario.Name>.golden. Traces serialize with canonical
// JSON, so golden files are byte-stable across runs and platforms.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}

	data, err := ledger.MarshalCanonical(snapshot(scenario.Name, result))
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result
}

// snapshot converts a result to the map form canonical JSON accepts.
// Zero-valued optional fields are dropped, matching the trace's JSON tags.
func snapshot(name string, result *Result) map[string]any {
	events := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"seq":   ev.Seq,
			"event": ev.Event,
		}
		if ev.Flow != "" {
			m["flow"] = ev.Flow
		}
		if ev.Adapter != "" {
			m["adapter"] = ev.Adapter
		}
		if ev.Status != "" {
			m["status"] = ev.Status
		}
		if ev.Order != 0 {
			m["order"] = ev.Order
		}
		if ev.Receipts != 0 {
			m["receipts"] = ev.Receipts
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		events[i] = m
	}

	snap := map[string]any{
		"scenario": name,
		"pass":     result.Pass,
		"trace":    events,
	}
	if len(result.Errors) > 0 {
		errs := make([]any, len(result.Errors))
		for i, e := range result.Errors {
			errs[i] = e
		}
		snap["errors"] = errs
	}
	return snap
}
