// Package events defines event types for flow execution lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/fluxohq/fluxo/pkg/models"
)

type EventType string

// Topic is the single stream all execution lifecycle events go to.
const Topic = "fluxo.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	FlowTriggeredEvent        EventType = "flow.triggered"
	ExecutionStartedEvent     EventType = "execution.started"
	ExecutionCompletedEvent   EventType = "execution.completed"
	ExecutionFailedEvent      EventType = "execution.failed"
	ExecutionAbortedEvent     EventType = "execution.aborted"
	NodeFinishedEvent         EventType = "execution.node.finished"
	NodeFailedEvent           EventType = "execution.node.failed"
	CompensationExecutedEvent EventType = "execution.compensation.executed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}

// FlowTriggered is published when a trigger fires and a run should start.
type FlowTriggered struct {
	BaseEvent

	TriggerType models.TriggerType `json:"trigger_type"`
	TriggerData map[string]any     `json:"trigger_data,omitempty"`
}

func (e FlowTriggered) GetType() EventType { return FlowTriggeredEvent }

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string             `json:"execution_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	EntryNodeID string             `json:"entry_node_id"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID   string `json:"execution_id"`
	NodesExecuted int    `json:"nodes_executed"`
	DurationMs    int64  `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType { return ExecutionCompletedEvent }

type ExecutionFailed struct {
	BaseEvent

	ExecutionID          string `json:"execution_id"`
	NodeID               string `json:"node_id"`
	Error                string `json:"error"`
	CompensatedSteps     int    `json:"compensated_steps"`
	CompensationFailures int    `json:"compensation_failures"`
	DurationMs           int64  `json:"duration_ms"`
}

func (e ExecutionFailed) GetType() EventType { return ExecutionFailedEvent }

// ExecutionAborted is published when the step bound trips. Distinct from a
// failure: no side effect necessarily failed.
type ExecutionAborted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Steps       int    `json:"steps"`
	MaxSteps    int    `json:"max_steps"`
}

func (e ExecutionAborted) GetType() EventType { return ExecutionAbortedEvent }

type NodeFinished struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	Output      map[string]any `json:"output,omitempty"`
	DurationMs  int64          `json:"duration_ms"`
}

func (e NodeFinished) GetType() EventType { return NodeFinishedEvent }

type NodeFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeType    string `json:"node_type"`
	Error       string `json:"error"`
	DurationMs  int64  `json:"duration_ms"`
}

func (e NodeFailed) GetType() EventType { return NodeFailedEvent }

type CompensationExecuted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	OK          bool   `json:"ok"`
	Error       string `json:"error,omitempty"`
}

func (e CompensationExecuted) GetType() EventType { return CompensationExecutedEvent }
