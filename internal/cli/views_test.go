package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestShortHash(t *testing.T) {
	assert.Equal(t, "genesis", shortHash(""))
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
}

func TestAdapterManifestParams(t *testing.T) {
	doc := `
adapterId: sheet-writer
name: Sheet Writer
version: 1.2.0
description: writes spreadsheet cells
inputSchema: "{cell: string}"
config:
  retries: 3
`
	var m adapterManifest
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))

	params, err := m.params()
	require.NoError(t, err)
	assert.Equal(t, "sheet-writer", params.AdapterID)
	assert.Equal(t, "1.2.0", params.Version)
	assert.Equal(t, "{cell: string}", params.InputSchema)
	assert.JSONEq(t, `{"retries":3}`, string(params.Config))
}

func TestAdapterManifestParamsNoConfig(t *testing.T) {
	m := adapterManifest{AdapterID: "a", Name: "A", Version: "1"}
	params, err := m.params()
	require.NoError(t, err)
	assert.Nil(t, params.Config)
}
