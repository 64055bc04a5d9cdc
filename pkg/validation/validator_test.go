package validation_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/handlers/condition"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
	"github.com/fluxohq/fluxo/pkg/validation"
)

func ptr(s string) *string {
	return &s
}

type noopFactory struct{}

func (f *noopFactory) ID() string             { return "noop" }
func (f *noopFactory) Schema() map[string]any { return nil }

func (f *noopFactory) Create(_ map[string]any) (protocol.Handler, error) {
	return &noopHandler{}, nil
}

type noopHandler struct{}

func (h *noopHandler) Execute(_ context.Context, _ *models.FlowNode, _ *models.ExecutionContext, _ *slog.Logger) models.ExecutionResult {
	return models.Succeed(nil)
}

func newValidator() *validation.Validator {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	reg := registry.NewRegistry(logger)
	reg.RegisterHandler(&noopFactory{})
	reg.RegisterHandler(condition.NewHandlerFactory())

	return validation.NewValidator(reg)
}

func issueCodes(issues []models.ValidationIssue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code)
	}

	return codes
}

func TestValidateAcceptsWellFormedFlow(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-ok",
		Name:        "well formed",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop", Next: ptr("b")},
			{ID: "b", Type: "noop"},
		},
	}

	result := newValidator().Validate(flow)

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.NotEmpty(t, result.GraphSum)
}

func TestValidateDuplicateNodeIDs(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-dup",
		Name:        "duplicates",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop", Next: ptr("b")},
			{ID: "b", Type: "noop"},
			{ID: "b", Type: "noop"},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Errors), validation.CodeDuplicateNodeID)
}

func TestValidateDanglingReferences(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-dangling",
		Name:        "dangling",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop", Next: ptr("ghost")},
		},
		Edges: []*models.FlowEdge{
			{ID: "e1", Source: "a", Target: "phantom"},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)

	codes := issueCodes(result.Errors)
	assert.Contains(t, codes, validation.CodeDanglingReference)

	messages := ""
	for _, issue := range result.Errors {
		messages += issue.Message + "\n"
	}

	// The offending identifiers must be named so authors can find them.
	assert.Contains(t, messages, "ghost")
	assert.Contains(t, messages, "phantom")
}

func TestValidateUnknownNodeType(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-type",
		Name:        "bad type",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "teleport"},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Errors), validation.CodeUnknownNodeType)
}

func TestValidateInvalidNodeConfig(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-config",
		Name:        "bad config",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			// condition requires an expression
			{ID: "a", Type: "condition", Config: map[string]any{}},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Errors), validation.CodeInvalidConfig)
}

func TestValidateNoEntryPoint(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-cycle",
		Name:        "pure cycle",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop", Next: ptr("b")},
			{ID: "b", Type: "noop", Next: ptr("a")},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Errors), validation.CodeNoEntryPoint)
}

func TestValidateEntryNodePinResolvesCycle(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-pinned",
		Name:        "pinned entry",
		TriggerType: models.TriggerTypeManual,
		EntryNodeID: ptr("a"),
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop", Next: ptr("b")},
			{ID: "b", Type: "noop", Next: ptr("a")},
		},
	}

	validator := newValidator()
	result := validator.Validate(flow)

	assert.True(t, result.IsValid)
	assert.Equal(t, "a", validator.EntryNode(flow))
}

func TestValidateMultipleEntryPoints(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-multi",
		Name:        "two roots",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop", Next: ptr("c")},
			{ID: "b", Type: "noop", Next: ptr("c")},
			{ID: "c", Type: "noop"},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Errors), validation.CodeMultipleEntryNodes)
}

func TestValidateUnknownTriggerType(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-trigger",
		Name:        "bad trigger",
		TriggerType: "carrier_pigeon",
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop"},
		},
	}

	result := newValidator().Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Errors), validation.CodeUnknownTriggerType)
}

func TestValidateUnreachableNodeIsWarningOnly(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-island",
		Name:        "island",
		TriggerType: models.TriggerTypeManual,
		EntryNodeID: ptr("a"),
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop"},
			{ID: "island", Type: "noop", Next: ptr("a")},
		},
	}

	result := newValidator().Validate(flow)

	assert.True(t, result.IsValid)
	assert.Contains(t, issueCodes(result.Warnings), validation.CodeUnreachableNode)
}

func TestGraphSumChangesWithGraph(t *testing.T) {
	t.Parallel()

	flow := &models.Flow{
		ID:          "flow-sum",
		Name:        "sum",
		TriggerType: models.TriggerTypeManual,
		Nodes: []*models.FlowNode{
			{ID: "a", Type: "noop"},
		},
	}

	first := validation.GraphSum(flow)
	require.NotEmpty(t, first)
	assert.Equal(t, first, validation.GraphSum(flow))

	flow.Nodes = append(flow.Nodes, &models.FlowNode{ID: "b", Type: "noop"})
	assert.NotEqual(t, first, validation.GraphSum(flow))

	// Renames don't touch the graph, so the sum is stable across them.
	flow.Name = "renamed"
	second := validation.GraphSum(flow)
	flow.Name = "sum"
	assert.Equal(t, second, validation.GraphSum(flow))
}
