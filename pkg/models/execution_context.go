package models

import "time"

// HistoryEntry records one executed node. Entries are append-only so a run
// can always be replayed or audited after the fact.
type HistoryEntry struct {
	NodeID    string         `json:"node_id"`
	NodeType  string         `json:"node_type"`
	Output    map[string]any `json:"output,omitempty"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ExecutionContext is the mutable per-run state. It is owned exclusively by
// the interpreter driving one run; two triggers on the same flow produce two
// independent contexts.
type ExecutionContext struct {
	ID            string         `json:"id"`
	FlowID        string         `json:"flow_id"`
	TriggerType   TriggerType    `json:"trigger_type"`
	Correlate     string         `json:"correlate,omitempty"` // e.g. phone number or trigger payload id
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
	Variables     map[string]any `json:"variables"`
	CurrentNodeID *string        `json:"current_node_id,omitempty"`
	History       []HistoryEntry `json:"history"`
	StartedAt     time.Time      `json:"started_at"`
}

func NewExecutionContext(id, flowID string, triggerType TriggerType, triggerData map[string]any) *ExecutionContext {
	return &ExecutionContext{
		ID:          id,
		FlowID:      flowID,
		TriggerType: triggerType,
		TriggerData: triggerData,
		Variables:   make(map[string]any),
		History:     make([]HistoryEntry, 0),
		StartedAt:   time.Now().UTC(),
	}
}

// SetVariable overwrites the value under key. Last write wins.
func (ec *ExecutionContext) SetVariable(key string, value any) {
	if ec.Variables == nil {
		ec.Variables = make(map[string]any)
	}

	ec.Variables[key] = value
}

// GetVariable returns the value under key, or def when absent. Absence is
// not an error.
func (ec *ExecutionContext) GetVariable(key string, def any) any {
	if ec.Variables == nil {
		return def
	}

	value, ok := ec.Variables[key]
	if !ok {
		return def
	}

	return value
}

// AddToHistory is the only way history grows.
func (ec *ExecutionContext) AddToHistory(entry HistoryEntry) {
	entry.Timestamp = time.Now().UTC()
	ec.History = append(ec.History, entry)
}

// MergeOutput stores a node's output under the node id to avoid cross-node
// key collisions, and flattens the output keys so condition expressions can
// read them unprefixed.
func (ec *ExecutionContext) MergeOutput(nodeID string, output map[string]any) {
	if len(output) == 0 {
		return
	}

	ec.SetVariable(nodeID, output)

	for key, value := range output {
		ec.SetVariable(key, value)
	}
}
