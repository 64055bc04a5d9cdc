// Package expression evaluates condition and collection expressions against
// execution context variables.
package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/fluxohq/fluxo/pkg/models"
)

// operator helpers mirror the comparison operators flow authors already use
// in condition configs (equals, greater_than, contains, ...).
var operatorFunctions = []expr.Option{
	expr.Function("equals", func(params ...any) (any, error) {
		return fmt.Sprintf("%v", params[0]) == fmt.Sprintf("%v", params[1]), nil
	}),
	expr.Function("not_equals", func(params ...any) (any, error) {
		return fmt.Sprintf("%v", params[0]) != fmt.Sprintf("%v", params[1]), nil
	}),
	expr.Function("greater_than", func(params ...any) (any, error) {
		a, b, err := toFloats(params)
		if err != nil {
			return nil, err
		}

		return a > b, nil
	}),
	expr.Function("less_than", func(params ...any) (any, error) {
		a, b, err := toFloats(params)
		if err != nil {
			return nil, err
		}

		return a < b, nil
	}),
	expr.Function("contains", func(params ...any) (any, error) {
		haystack, _ := params[0].(string)
		needle, _ := params[1].(string)

		return strings.Contains(haystack, needle), nil
	}),
	expr.Function("not_contains", func(params ...any) (any, error) {
		haystack, _ := params[0].(string)
		needle, _ := params[1].(string)

		return !strings.Contains(haystack, needle), nil
	}),
}

func toFloats(params []any) (float64, float64, error) {
	a, okA := asFloat(params[0])
	b, okB := asFloat(params[1])

	if !okA || !okB {
		return 0, 0, fmt.Errorf("numeric comparison expects numbers, got %T and %T", params[0], params[1])
	}

	return a, b, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// Evaluator compiles and runs expressions with context variables in scope.
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Eval runs the expression with the execution context's variables as the
// environment. Missing variables evaluate to nil instead of failing so that
// conditions can probe outputs that may not exist yet.
func (e *Evaluator) Eval(expression string, executionCtx *models.ExecutionContext) (any, error) {
	env := Environment(executionCtx)

	opts := []expr.Option{
		expr.Env(env),
		expr.AllowUndefinedVariables(),
	}
	opts = append(opts, operatorFunctions...)

	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", expression, err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression %q: %w", expression, err)
	}

	return result, nil
}

// EvalBool evaluates the expression and requires a boolean result.
func (e *Evaluator) EvalBool(expression string, executionCtx *models.ExecutionContext) (bool, error) {
	result, err := e.Eval(expression, executionCtx)
	if err != nil {
		return false, err
	}

	value, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q evaluated to %T, expected boolean", expression, result)
	}

	return value, nil
}

// EvalCollection evaluates the expression and requires an array result,
// as needed by loop nodes.
func (e *Evaluator) EvalCollection(expression string, executionCtx *models.ExecutionContext) ([]any, error) {
	result, err := e.Eval(expression, executionCtx)
	if err != nil {
		return nil, err
	}

	if result == nil {
		return []any{}, nil
	}

	collection, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("expression %q evaluated to %T, expected array", expression, result)
	}

	return collection, nil
}

// Environment builds the evaluation scope: flattened variables plus the
// trigger payload and execution identity.
func Environment(executionCtx *models.ExecutionContext) map[string]any {
	env := make(map[string]any, len(executionCtx.Variables)+3)

	for key, value := range executionCtx.Variables {
		env[key] = value
	}

	env["trigger_data"] = executionCtx.TriggerData
	env["execution_id"] = executionCtx.ID
	env["flow_id"] = executionCtx.FlowID

	return env
}
