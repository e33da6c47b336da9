package store

import (
	"encoding/json"
	"fmt"
)

// marshalArtifactIDs serializes a flow's linked artifact IDs as a JSON array.
// Nil and empty both store as "[]" so reads are uniform.
func marshalArtifactIDs(ids []string) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal artifact ids: %w", err)
	}
	return string(data), nil
}

// unmarshalArtifactIDs parses a stored JSON array of artifact IDs.
func unmarshalArtifactIDs(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal artifact ids: %w", err)
	}
	return ids, nil
}
