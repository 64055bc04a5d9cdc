package models

import "time"

// ExecutionState is the terminal (or in-flight) state of one run.
type ExecutionState string

const (
	ExecutionStatePending   ExecutionState = "pending"
	ExecutionStateRunning   ExecutionState = "running"
	ExecutionStateCompleted ExecutionState = "completed"
	ExecutionStateFailed    ExecutionState = "failed"
	ExecutionStateAborted   ExecutionState = "aborted"
)

// SagaStatus tracks the compensation lifecycle of a failed run.
type SagaStatus string

const (
	SagaStatusPending      SagaStatus = "pending"
	SagaStatusRunning      SagaStatus = "running"
	SagaStatusCompleted    SagaStatus = "completed"
	SagaStatusFailed       SagaStatus = "failed"
	SagaStatusCompensating SagaStatus = "compensating"
	SagaStatusCompensated  SagaStatus = "compensated"
)

// CompensationLogEntry records one compensation attempt.
type CompensationLogEntry struct {
	NodeID        string    `json:"node_id"`
	OK            bool      `json:"ok"`
	Error         string    `json:"error,omitempty"`
	CompensatedAt time.Time `json:"compensated_at"`
}

// ExecutionStats summarizes a finished run.
type ExecutionStats struct {
	NodesExecuted int           `json:"nodes_executed"`
	NodesFailed   int           `json:"nodes_failed"`
	Duration      time.Duration `json:"duration"`
}

// ExecutionReport is what the engine emits when a run reaches a terminal
// state. History is always included so callers can reconstruct exactly which
// nodes ran and what was or wasn't compensated.
type ExecutionReport struct {
	ExecutionID     string                 `json:"execution_id"`
	FlowID          string                 `json:"flow_id"`
	FinalState      ExecutionState         `json:"final_state"`
	SagaStatus      SagaStatus             `json:"saga_status"`
	History         []HistoryEntry         `json:"history"`
	Error           string                 `json:"error,omitempty"`
	CompensationLog []CompensationLogEntry `json:"compensation_log,omitempty"`
	Stats           ExecutionStats         `json:"stats"`
	FinishedAt      time.Time              `json:"finished_at"`
}
