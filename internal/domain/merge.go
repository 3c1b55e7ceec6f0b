package domain

import (
	"dario.cat/mergo"
)

// MergeRecords combines an upstream record into the input being
// assembled for a downstream node. Later sources override earlier
// values on key collision and list values are appended, matching how
// fan-in nodes expect predecessor outputs to combine.
func MergeRecords(current, incoming map[string]interface{}) (map[string]interface{}, error) {
	if current == nil {
		current = make(map[string]interface{}, len(incoming))
	}
	if len(incoming) == 0 {
		return current, nil
	}

	if err := mergo.Merge(&current, incoming,
		mergo.WithOverride,
		mergo.WithAppendSlice); err != nil {
		return nil, NewWorkflowError("failed to merge records", err, WithOperation("merge_records"))
	}

	return current, nil
}

// CloneRecord returns a shallow copy so harnesses never hand a caller's
// map to node logic directly.
func CloneRecord(record map[string]interface{}) map[string]interface{} {
	if record == nil {
		return nil
	}
	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
