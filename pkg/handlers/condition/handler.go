// Package condition provides the pure branch-decision node. It evaluates a
// boolean expression over context variables and produces no side effect.
package condition

import (
	"context"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/expression"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

const NodeType = "condition"

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
			"expression": map[string]any{
				"type":        "string",
				"description": "Boolean expression over context variables, e.g. \"score > 50\" or \"equals(intent, 'support')\"",
			},
		},
		"required": []string{"expression"},
	}
}

func (f *HandlerFactory) Create(config map[string]any) (protocol.Handler, error) {
	expr, _ := config["expression"].(string)

	return &Handler{expression: expr, evaluator: f.evaluator}, nil
}

type Handler struct {
	expression string
	evaluator  *expression.Evaluator
}

// Execute evaluates the expression. The interpreter routes to the node's
// true/false branch target based on the "result" output.
func (h *Handler) Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult {
	result, err := h.evaluator.EvalBool(h.expression, executionCtx)
	if err != nil {
		return models.Fail(err, map[string]any{"expression": h.expression})
	}

	logger.DebugContext(ctx, "Condition evaluated", "expression", h.expression, "result", result)

	return models.Succeed(map[string]any{"result": result})
}
