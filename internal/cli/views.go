package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atlaslabs/atlasflow/internal/engine"
	"github.com/atlaslabs/atlasflow/internal/flow"
	"github.com/atlaslabs/atlasflow/internal/ledger"
)

// Presentation views rendered by CLI commands. JSON field names are the wire
// vocabulary of the surrounding REST layer; timestamps are RFC 3339.

type flowView struct {
	ID                string   `json:"id"`
	WalletScopeID     string   `json:"walletScopeId"`
	Name              string   `json:"name"`
	Status            string   `json:"status"`
	LinkedArtifactIDs []string `json:"linkedArtifactIds,omitempty"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

func newFlowView(f flow.Flow) flowView {
	return flowView{
		ID:                f.ID,
		WalletScopeID:     f.WalletScopeID,
		Name:              f.Name,
		Status:            string(f.Status),
		LinkedArtifactIDs: f.LinkedArtifactIDs,
		CreatedAt:         f.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:         f.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func (v flowView) String() string {
	return fmt.Sprintf("%s  %-10s  %s", v.ID, v.Status, v.Name)
}

type stepView struct {
	ID               string          `json:"id"`
	FlowID           string          `json:"flowId"`
	StepOrder        int64           `json:"stepOrder"`
	SourceArtifactID string          `json:"sourceArtifactId,omitempty"`
	TargetArtifactID string          `json:"targetArtifactId,omitempty"`
	AdapterID        string          `json:"adapterId,omitempty"`
	Payload          json.RawMessage `json:"payload,omitempty"`
	ReceiptID        string          `json:"receiptId,omitempty"`
}

func newStepView(st flow.Step) stepView {
	return stepView{
		ID:               st.ID,
		FlowID:           st.FlowID,
		StepOrder:        st.StepOrder,
		SourceArtifactID: st.SourceArtifactID,
		TargetArtifactID: st.TargetArtifactID,
		AdapterID:        st.AdapterID,
		Payload:          st.Payload,
		ReceiptID:        st.ReceiptID,
	}
}

func (v stepView) String() string {
	target := v.TargetArtifactID
	if target == "" {
		target = "-"
	}
	return fmt.Sprintf("%3d  %s  target=%s  receipt=%s", v.StepOrder, v.ID, target, orDash(v.ReceiptID))
}

type flowDetailView struct {
	Flow  flowView   `json:"flow"`
	Steps []stepView `json:"steps"`
}

func newFlowDetailView(d engine.FlowDetail) flowDetailView {
	steps := make([]stepView, len(d.Steps))
	for i, st := range d.Steps {
		steps[i] = newStepView(st)
	}
	return flowDetailView{Flow: newFlowView(d.Flow), Steps: steps}
}

func (v flowDetailView) String() string {
	var b strings.Builder
	b.WriteString(v.Flow.String())
	for _, st := range v.Steps {
		b.WriteString("\n  ")
		b.WriteString(st.String())
	}
	return b.String()
}

type adapterView struct {
	AdapterID   string `json:"adapterId"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

func newAdapterView(a flow.Adapter) adapterView {
	return adapterView{
		AdapterID:   a.AdapterID,
		Name:        a.Name,
		Version:     a.Version,
		Description: a.Description,
		Status:      string(a.Status),
	}
}

func (v adapterView) String() string {
	return fmt.Sprintf("%-24s  %-10s  %s %s", v.AdapterID, v.Status, v.Name, v.Version)
}

type receiptView struct {
	ID           string `json:"id"`
	ArtifactID   string `json:"artifactId"`
	Op           string `json:"op"`
	PrevHash     string `json:"prevHash,omitempty"`
	NextHash     string `json:"nextHash"`
	ActorScopeID string `json:"actorScopeId"`
	CreatedAt    string `json:"createdAt"`
}

func newReceiptView(r ledger.Receipt) receiptView {
	return receiptView{
		ID:           r.ID,
		ArtifactID:   r.ArtifactID,
		Op:           string(r.Op),
		PrevHash:     r.PrevHash,
		NextHash:     r.NextHash,
		ActorScopeID: r.ActorScopeID,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (v receiptView) String() string {
	return fmt.Sprintf("%s  %-12s  prev=%s  next=%s", v.ID, v.Op, shortHash(v.PrevHash), shortHash(v.NextHash))
}

type executionView struct {
	Flow        flowView      `json:"flow"`
	Steps       []stepView    `json:"steps"`
	Receipts    []receiptView `json:"receipts"`
	CompletedAt string        `json:"completedAt"`
}

func newExecutionView(res engine.ExecutionResult) executionView {
	steps := make([]stepView, len(res.Steps))
	for i, st := range res.Steps {
		steps[i] = newStepView(st)
	}
	receipts := make([]receiptView, len(res.Receipts))
	for i, r := range res.Receipts {
		receipts[i] = newReceiptView(r)
	}
	return executionView{
		Flow:        newFlowView(res.Flow),
		Steps:       steps,
		Receipts:    receipts,
		CompletedAt: res.CompletedAt.Format(time.RFC3339Nano),
	}
}

func (v executionView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "flow %s %s (%d steps, %d receipts)", v.Flow.ID, v.Flow.Status, len(v.Steps), len(v.Receipts))
	for _, r := range v.Receipts {
		b.WriteString("\n  ")
		b.WriteString(r.String())
	}
	return b.String()
}

func shortHash(h string) string {
	if h == "" {
		return "genesis"
	}
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
