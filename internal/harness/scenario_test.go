package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: basic
description: A minimal valid scenario.
scope:
  wallet: "0xAbc"
  session: s-1
flows:
  - name: only
actions:
  - op: execute
    flow: only
expect:
  flows:
    only:
      status: completed
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", scenario.Name)
	assert.Equal(t, "0xAbc", scenario.Scope.Wallet)
	require.Len(t, scenario.Actions, 1)
	assert.Equal(t, OpExecute, scenario.Actions[0].Op)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: Misspells actions.
scope:
  wallet: "0xAbc"
  session: s-1
flows:
  - name: only
action:
  - op: execute
    flow: only
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse scenario")
}

func TestLoadScenarioValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: No name.
scope: {wallet: "0xAbc", session: s-1}
flows:
  - name: only
`,
			wantErr: "name is required",
		},
		{
			name: "missing scope session",
			content: `
name: no-session
description: Scope without session.
scope: {wallet: "0xAbc"}
flows:
  - name: only
`,
			wantErr: "scope.wallet and scope.session are required",
		},
		{
			name: "no flows",
			content: `
name: empty
description: No flows.
scope: {wallet: "0xAbc", session: s-1}
flows: []
`,
			wantErr: "flows list is required",
		},
		{
			name: "duplicate flow name",
			content: `
name: dupes
description: Two flows share a name.
scope: {wallet: "0xAbc", session: s-1}
flows:
  - name: twin
  - name: twin
`,
			wantErr: "duplicate flow name",
		},
		{
			name: "unknown action op",
			content: `
name: bad-op
description: Unsupported verb.
scope: {wallet: "0xAbc", session: s-1}
flows:
  - name: only
actions:
  - op: launch
    flow: only
`,
			wantErr: `unknown op "launch"`,
		},
		{
			name: "action on unknown flow",
			content: `
name: bad-ref
description: Action names a flow that does not exist.
scope: {wallet: "0xAbc", session: s-1}
flows:
  - name: only
actions:
  - op: execute
    flow: other
`,
			wantErr: `unknown flow "other"`,
		},
		{
			name: "expectation on unknown flow",
			content: `
name: bad-expect
description: Expect names a flow that does not exist.
scope: {wallet: "0xAbc", session: s-1}
flows:
  - name: only
expect:
  flows:
    other:
      status: completed
`,
			wantErr: `unknown flow "other"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
