// Package models defines the core domain models for flow graph execution.
package models

import "time"

// TriggerType identifies what kind of event starts a flow run.
type TriggerType string

const (
	TriggerTypeManual            TriggerType = "manual"
	TriggerTypeEvent             TriggerType = "event"
	TriggerTypeSchedule          TriggerType = "schedule"
	TriggerTypeWebhook           TriggerType = "webhook"
	TriggerTypeLeadCreated       TriggerType = "lead_created"
	TriggerTypeLeadUpdated       TriggerType = "lead_updated"
	TriggerTypeMessageReceived   TriggerType = "message_received"
	TriggerTypeCampaignCompleted TriggerType = "campaign_completed"
	TriggerTypeFormSubmitted     TriggerType = "form_submitted"
)

// KnownTriggerTypes lists every trigger type the engine accepts.
var KnownTriggerTypes = []TriggerType{
	TriggerTypeManual,
	TriggerTypeEvent,
	TriggerTypeSchedule,
	TriggerTypeWebhook,
	TriggerTypeLeadCreated,
	TriggerTypeLeadUpdated,
	TriggerTypeMessageReceived,
	TriggerTypeCampaignCompleted,
	TriggerTypeFormSubmitted,
}

func (t TriggerType) Valid() bool {
	for _, known := range KnownTriggerTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Position is presentation-only editor data, ignored by the interpreter.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FlowNode is one step in a flow graph.
type FlowNode struct {
	ID          string         `json:"id"   validate:"required"`
	Type        string         `json:"type" validate:"required"`
	Name        string         `json:"name,omitempty"`
	Config      map[string]any `json:"config"`
	Next        *string        `json:"next,omitempty"`
	TrueNodeID  *string        `json:"true_node_id,omitempty"`
	FalseNodeID *string        `json:"false_node_id,omitempty"`
	Position    Position       `json:"position"`
}

// FlowEdge is a directed connection between two nodes, optionally guarded
// by a condition expression evaluated against context variables.
type FlowEdge struct {
	ID        string `json:"id"     validate:"required"`
	Source    string `json:"source" validate:"required"`
	Target    string `json:"target" validate:"required"`
	Label     string `json:"label,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// Flow is an immutable directed graph of typed nodes. Cycles are allowed
// (loop nodes revisit nodes on purpose); the interpreter's step bound stops
// runaway ones.
type Flow struct {
	ID          string      `json:"id"           validate:"required"`
	Name        string      `json:"name"         validate:"required,min=3"`
	Description string      `json:"description,omitempty"`
	TriggerType TriggerType `json:"trigger_type" validate:"required"`
	// EntryNodeID pins the entry point explicitly. Required when the entry
	// node sits inside a cycle (a loop body pointing back at it), optional
	// otherwise.
	EntryNodeID *string        `json:"entry_node_id,omitempty"`
	Nodes       []*FlowNode    `json:"nodes" validate:"required,min=1"`
	Edges       []*FlowEdge    `json:"edges"`
	Variables   map[string]any `json:"variables,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *FlowNode {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// OutgoingEdges returns the edges whose source is the given node, in
// declaration order.
func (f *Flow) OutgoingEdges(nodeID string) []*FlowEdge {
	edges := make([]*FlowEdge, 0)

	for _, edge := range f.Edges {
		if edge.Source == nodeID {
			edges = append(edges, edge)
		}
	}

	return edges
}
