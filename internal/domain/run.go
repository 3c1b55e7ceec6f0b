package domain

import "time"

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

type NodeRunStatus string

const (
	NodeRunPending   NodeRunStatus = "pending"
	NodeRunRunning   NodeRunStatus = "running"
	NodeRunCompleted NodeRunStatus = "completed"
	NodeRunFailed    NodeRunStatus = "failed"
	NodeRunSkipped   NodeRunStatus = "skipped"
)

// NodeRun records the outcome of one node within a workflow run: either
// a validated output record, or the error that stopped it. A node left
// behind an untaken router branch is marked skipped with neither.
type NodeRun struct {
	NodeID      string                 `json:"node_id"`
	NodeType    string                 `json:"node_type"`
	Status      NodeRunStatus          `json:"status"`
	Output      map[string]interface{} `json:"output,omitempty"`
	Error       string                 `json:"error,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// WorkflowRun is the aggregate outcome of executing a validated
// definition against one initial input record.
type WorkflowRun struct {
	ID          string             `json:"id"`
	WorkflowID  string             `json:"workflow_id,omitempty"`
	Status      RunStatus          `json:"status"`
	NodeRuns    map[string]NodeRun `json:"node_runs"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Output returns the validated output record of the terminal output
// node, when the definition declares one and the run completed.
func (r *WorkflowRun) Output(outputNodeID string) (map[string]interface{}, bool) {
	nodeRun, ok := r.NodeRuns[outputNodeID]
	if !ok || nodeRun.Status != NodeRunCompleted {
		return nil, false
	}
	return nodeRun.Output, true
}
