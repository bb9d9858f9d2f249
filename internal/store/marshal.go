package store

import (
	"encoding/json"
	"fmt"
)

// marshalIDs converts a list of node ids to JSON TEXT for storage.
// A nil list is stored as "[]".
func marshalIDs(ids []int) (string, error) {
	if len(ids) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal ids: %w", err)
	}
	return string(data), nil
}

// unmarshalIDs parses JSON TEXT into a list of node ids.
// Empty lists come back as nil so loaded nodes compare equal to fresh ones.
func unmarshalIDs(data string) ([]int, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
