package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance scenario for the orchestration engine.
// A scenario registers adapters, builds flows with ordered steps, applies a
// sequence of lifecycle actions, and asserts on the resulting statuses and
// receipt chains.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scope is the caller identity every operation runs under.
	Scope ScopeSpec `yaml:"scope"`

	// Adapters are registered before any flow is created.
	Adapters []AdapterSpec `yaml:"adapters,omitempty"`

	// Flows are created in order, each with its steps appended in order.
	// Flow names must be unique; actions and expectations refer to them.
	Flows []FlowSpec `yaml:"flows"`

	// Actions are lifecycle verbs applied after all flows exist.
	Actions []ActionStep `yaml:"actions,omitempty"`

	// Expect validates final statuses and receipt counts.
	Expect ExpectSpec `yaml:"expect"`
}

// ScopeSpec identifies the wallet scope a scenario runs under.
type ScopeSpec struct {
	Wallet  string `yaml:"wallet"`
	Session string `yaml:"session"`
	Profile string `yaml:"profile,omitempty"`
}

// AdapterSpec registers an adapter during scenario setup.
type AdapterSpec struct {
	AdapterID   string         `yaml:"adapterId"`
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	Description string         `yaml:"description,omitempty"`
	Config      map[string]any `yaml:"config,omitempty"`
}

// FlowSpec creates a flow with ordered steps.
type FlowSpec struct {
	Name      string     `yaml:"name"`
	Artifacts []string   `yaml:"artifacts,omitempty"`
	Steps     []StepSpec `yaml:"steps,omitempty"`
}

// StepSpec appends one step to its flow.
type StepSpec struct {
	Source  string         `yaml:"source,omitempty"`
	Target  string         `yaml:"target,omitempty"`
	Adapter string         `yaml:"adapter,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// ActionStep applies a lifecycle verb to a flow by name.
type ActionStep struct {
	// Op is one of "execute", "cancel", "delete".
	Op string `yaml:"op"`

	// Flow is the FlowSpec name the verb applies to.
	Flow string `yaml:"flow"`

	// Error, when set, is the engine error code this action must fail with
	// (e.g. "INVALID_STATE"). When empty the action must succeed.
	Error string `yaml:"error,omitempty"`
}

// Action verbs.
const (
	OpExecute = "execute"
	OpCancel  = "cancel"
	OpDelete  = "delete"
)

// ExpectSpec validates the final state after all actions ran.
type ExpectSpec struct {
	// Flows maps flow names to expected final state. The special status
	// "deleted" asserts the flow no longer exists.
	Flows map[string]FlowExpect `yaml:"flows,omitempty"`

	// Receipts maps artifact IDs to expected receipt counts.
	Receipts map[string]int `yaml:"receipts,omitempty"`

	// VerifyChains, when true, audits every receipt chain in the ledger.
	VerifyChains bool `yaml:"verifyChains,omitempty"`
}

// FlowExpect is the expected final state of one flow.
type FlowExpect struct {
	Status string `yaml:"status"`
	Steps  int    `yaml:"steps,omitempty"`
}

// StatusDeleted is the ExpectSpec pseudo-status for a deleted flow.
const StatusDeleted = "deleted"

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently dropping assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scope.Wallet == "" || s.Scope.Session == "" {
		return fmt.Errorf("scope.wallet and scope.session are required")
	}
	if len(s.Flows) == 0 {
		return fmt.Errorf("flows list is required and must be non-empty")
	}

	flowNames := make(map[string]bool, len(s.Flows))
	for i, f := range s.Flows {
		if f.Name == "" {
			return fmt.Errorf("flows[%d]: name is required", i)
		}
		if flowNames[f.Name] {
			return fmt.Errorf("flows[%d]: duplicate flow name %q", i, f.Name)
		}
		flowNames[f.Name] = true
	}

	for i, a := range s.Adapters {
		if a.AdapterID == "" || a.Name == "" || a.Version == "" {
			return fmt.Errorf("adapters[%d]: adapterId, name and version are required", i)
		}
	}

	for i, act := range s.Actions {
		switch act.Op {
		case OpExecute, OpCancel, OpDelete:
		default:
			return fmt.Errorf("actions[%d]: unknown op %q", i, act.Op)
		}
		if !flowNames[act.Flow] {
			return fmt.Errorf("actions[%d]: unknown flow %q", i, act.Flow)
		}
	}

	for name := range s.Expect.Flows {
		if !flowNames[name] {
			return fmt.Errorf("expect.flows: unknown flow %q", name)
		}
	}

	return nil
}
