package domain

import "fmt"

const (
	WorkflowDefPrefix     = "workflow:def:"
	WorkflowVersionPrefix = "workflow:version:"
	WorkflowRunPrefix     = "workflow:run:"
)

// WorkflowDefKey builds the canonical key for the head revision of a
// stored workflow.
func WorkflowDefKey(id string) string {
	return fmt.Sprintf("%s%s", WorkflowDefPrefix, id)
}

// WorkflowVersionKey builds the key for an immutable version snapshot.
func WorkflowVersionKey(id string, version int64) string {
	return fmt.Sprintf("%s%s:%d", WorkflowVersionPrefix, id, version)
}

// WorkflowRunKey builds the key for a persisted run record.
func WorkflowRunKey(id string) string {
	return fmt.Sprintf("%s%s", WorkflowRunPrefix, id)
}
