// Package loop provides the control node that re-enters a sub-path once per
// element of a collection bound from context variables.
package loop

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/expression"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "loop"

const defaultItemVariable = "item"

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{evaluator: expression.NewEvaluator()}
}

type HandlerFactory struct {
	evaluator *expression.Evaluator
}

func (f *HandlerFactory) ID() string {
	return NodeType
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"collection": map[string]any{
				"type":        "string",
				"description": "Expression that evaluates to an array of context data",
			},
			"body_node_id": map[string]any{
				"type":        "string",
				"description": "First node of the sub-path executed once per element; defaults to the node's true branch target",
			},
			"item_variable": map[string]any{
				"type":        "string",
				"description": "Variable name the current element is bound to (default \"item\")",
			},
		},
		"required": []string{"collection"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	collection, _ := config["collection"].(string)
	bodyNodeID, _ := config["body_node_id"].(string)

	itemVariable, _ := config["item_variable"].(string)
	if itemVariable == "" {
		itemVariable = defaultItemVariable
	}

	return &Handler{
		collection:   collection,
		bodyNodeID:   bodyNodeID,
		itemVariable: itemVariable,
		evaluator:    f.evaluator,
	}, nil
}

type Handler struct {
	collection   string
	bodyNodeID   string
	itemVariable string
	evaluator    *expression.Evaluator
}

// Execute pops the next element of the bound collection into the scoped
// item variable and forces the successor back into the loop body. Once the
// collection is exhausted (or empty) it resets its cursor and falls through
// to the node's default successor.
func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	collection, err := h.evaluator.EvalCollection(h.collection, executionCtx)
	if err != nil {
		return models.Fail(err, map[string]any{"collection": h.collection})
	}

	bodyNodeID := h.bodyNodeID
	if bodyNodeID == "" && node.TrueNodeID != nil {
		bodyNodeID = *node.TrueNodeID
	}

	cursorKey := node.ID + ".cursor"

	cursor, _ := executionCtx.GetVariable(cursorKey, 0).(int)
	if cursor < 0 {
		cursor = 0
	}

	if cursor >= len(collection) {
		executionCtx.SetVariable(cursorKey, 0)

		logger.DebugContext(ctx, "Loop exhausted", "iterations", len(collection))

		return models.Succeed(map[string]any{
			"completed":  true,
			"iterations": len(collection),
		})
	}

	if bodyNodeID == "" {
		return models.Fail(errors.New("loop node has no body: set body_node_id or a true branch target"), nil)
	}

	executionCtx.SetVariable(cursorKey, cursor+1)

	logger.DebugContext(ctx, "Loop iteration", "index", cursor, "size", len(collection))

	return models.SucceedNext(bodyNodeID, map[string]any{
		h.itemVariable: collection[cursor],
		"index":        cursor,
		"completed":    false,
	})
}
