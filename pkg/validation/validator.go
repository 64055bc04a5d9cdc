// Package validation performs pre-flight structural checks on a flow graph
// before it is accepted for execution.
package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/registry"
)

const (
	CodeDuplicateNodeID    = "duplicate_node_id"
	CodeDanglingReference  = "dangling_reference"
	CodeUnknownNodeType    = "unknown_node_type"
	CodeInvalidConfig      = "invalid_config"
	CodeNoEntryPoint       = "no_entry_point"
	CodeMultipleEntryNodes = "multiple_entry_points"
	CodeUnknownTriggerType = "unknown_trigger_type"
	CodeUnreachableNode    = "unreachable_node"
)

type Validator struct {
	registry *registry.Registry
}

func NewValidator(reg *registry.Registry) *Validator {
	return &Validator{registry: reg}
}

// Validate runs the structural checks in order: unique ids, resolvable
// references, known node types and valid configs, exactly one entry point,
// then reachability warnings. A graph that fails must never be handed to
// the interpreter.
func (v *Validator) Validate(flow *models.Flow) models.ValidationResult {
	result := models.ValidationResult{
		GraphSum: GraphSum(flow),
		Errors:   make([]models.ValidationIssue, 0),
		Warnings: make([]models.ValidationIssue, 0),
	}

	nodeIDs := v.checkUniqueIDs(flow, &result)
	v.checkReferences(flow, nodeIDs, &result)
	v.checkNodeTypes(flow, &result)

	entryID := v.checkEntryPoint(flow, nodeIDs, &result)
	if entryID != "" {
		v.checkReachability(flow, entryID, &result)
	}

	result.IsValid = len(result.Errors) == 0

	return result
}

// EntryNode returns the id of the graph's single entry point: the pinned
// EntryNodeID when set, otherwise the unique node no edge, next pointer or
// branch target points at. Returns an empty string when zero or several
// candidates exist.
func (v *Validator) EntryNode(flow *models.Flow) string {
	if flow.EntryNodeID != nil && *flow.EntryNodeID != "" {
		if flow.NodeByID(*flow.EntryNodeID) == nil {
			return ""
		}

		return *flow.EntryNodeID
	}

	referenced := referencedIDs(flow)

	entry := ""

	for _, node := range flow.Nodes {
		if referenced[node.ID] {
			continue
		}

		if entry != "" {
			return ""
		}

		entry = node.ID
	}

	return entry
}

func (v *Validator) checkUniqueIDs(flow *models.Flow, result *models.ValidationResult) map[string]bool {
	nodeIDs := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		if nodeIDs[node.ID] {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeDuplicateNodeID,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node id %q is used more than once", node.ID),
			})

			continue
		}

		nodeIDs[node.ID] = true
	}

	return nodeIDs
}

func (v *Validator) checkReferences(flow *models.Flow, nodeIDs map[string]bool, result *models.ValidationResult) {
	check := func(nodeID, field string, ref *string) {
		if ref == nil || *ref == "" {
			return
		}

		if !nodeIDs[*ref] {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeDanglingReference,
				NodeID:  nodeID,
				Message: fmt.Sprintf("node %q %s references missing node %q", nodeID, field, *ref),
			})
		}
	}

	for _, node := range flow.Nodes {
		check(node.ID, "next", node.Next)
		check(node.ID, "true_node_id", node.TrueNodeID)
		check(node.ID, "false_node_id", node.FalseNodeID)
	}

	for _, edge := range flow.Edges {
		if !nodeIDs[edge.Source] {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeDanglingReference,
				EdgeID:  edge.ID,
				Message: fmt.Sprintf("edge %q source references missing node %q", edge.ID, edge.Source),
			})
		}

		if !nodeIDs[edge.Target] {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeDanglingReference,
				EdgeID:  edge.ID,
				Message: fmt.Sprintf("edge %q target references missing node %q", edge.ID, edge.Target),
			})
		}
	}
}

func (v *Validator) checkNodeTypes(flow *models.Flow, result *models.ValidationResult) {
	for _, node := range flow.Nodes {
		if !v.registry.HasHandler(node.Type) {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeUnknownNodeType,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node %q has unknown type %q", node.ID, node.Type),
			})

			continue
		}

		err := v.registry.ValidateConfig(node.Type, node.Config)
		if err != nil {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeInvalidConfig,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node %q: %v", node.ID, err),
			})
		}
	}
}

func (v *Validator) checkEntryPoint(flow *models.Flow, nodeIDs map[string]bool, result *models.ValidationResult) string {
	if !flow.TriggerType.Valid() {
		result.Errors = append(result.Errors, models.ValidationIssue{
			Code:    CodeUnknownTriggerType,
			Message: fmt.Sprintf("unknown trigger type %q", flow.TriggerType),
		})
	}

	if flow.EntryNodeID != nil && *flow.EntryNodeID != "" {
		if !nodeIDs[*flow.EntryNodeID] {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Code:    CodeDanglingReference,
				Message: fmt.Sprintf("entry_node_id references missing node %q", *flow.EntryNodeID),
			})

			return ""
		}

		return *flow.EntryNodeID
	}

	referenced := referencedIDs(flow)

	entries := make([]string, 0, 1)

	for _, node := range flow.Nodes {
		if nodeIDs[node.ID] && !referenced[node.ID] {
			entries = append(entries, node.ID)
		}
	}

	switch {
	case len(entries) == 0:
		result.Errors = append(result.Errors, models.ValidationIssue{
			Code:    CodeNoEntryPoint,
			Message: "no entry point: every node is referenced by another node",
		})

		return ""
	case len(entries) > 1:
		result.Errors = append(result.Errors, models.ValidationIssue{
			Code:    CodeMultipleEntryNodes,
			Message: fmt.Sprintf("multiple entry points: %v", entries),
		})

		return ""
	}

	return entries[0]
}

func (v *Validator) checkReachability(flow *models.Flow, entryID string, result *models.ValidationResult) {
	visited := make(map[string]bool, len(flow.Nodes))
	queue := []string{entryID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		if visited[id] {
			continue
		}

		visited[id] = true

		node := flow.NodeByID(id)
		if node == nil {
			continue
		}

		for _, ref := range []*string{node.Next, node.TrueNodeID, node.FalseNodeID} {
			if ref != nil && *ref != "" {
				queue = append(queue, *ref)
			}
		}

		for _, edge := range flow.OutgoingEdges(id) {
			queue = append(queue, edge.Target)
		}
	}

	for _, node := range flow.Nodes {
		if !visited[node.ID] {
			result.Warnings = append(result.Warnings, models.ValidationIssue{
				Code:    CodeUnreachableNode,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node %q is unreachable from entry point %q", node.ID, entryID),
			})
		}
	}
}

func referencedIDs(flow *models.Flow) map[string]bool {
	referenced := make(map[string]bool)

	for _, node := range flow.Nodes {
		for _, ref := range []*string{node.Next, node.TrueNodeID, node.FalseNodeID} {
			if ref != nil && *ref != "" {
				referenced[*ref] = true
			}
		}
	}

	for _, edge := range flow.Edges {
		referenced[edge.Target] = true
	}

	return referenced
}

// GraphSum returns a content hash of the graph's nodes and edges so callers
// can cache validation results.
func GraphSum(flow *models.Flow) string {
	payload, err := json.Marshal(struct {
		Nodes []*models.FlowNode `json:"nodes"`
		Edges []*models.FlowEdge `json:"edges"`
	}{Nodes: flow.Nodes, Edges: flow.Edges})
	if err != nil {
		return ""
	}

	sum := sha256.Sum256(payload)

	return hex.EncodeToString(sum[:])
}
