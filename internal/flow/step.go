package flow

import (
	"encoding/json"
	"time"
)

// Step is one ordered action within a Flow.
//
// StepOrder values for a flow form a strictly increasing sequence starting at 1,
// assigned at insertion time. Steps are never reordered or renumbered; ReceiptID
// is populated exactly once by the executor and the step is otherwise immutable.
type Step struct {
	ID               string
	FlowID           string
	StepOrder        int64
	SourceArtifactID string
	TargetArtifactID string
	AdapterID        string

	// Payload is opaque adapter-defined data, carried as raw JSON.
	// Interpretation against the adapter's declared schema happens outside
	// the orchestrator.
	Payload json.RawMessage

	// ReceiptID links to the atlas_receipts entry created for this step,
	// empty until the step has executed against a target artifact.
	ReceiptID string

	CreatedAt time.Time
}
