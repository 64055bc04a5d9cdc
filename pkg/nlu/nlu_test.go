package nlu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxohq/fluxo/pkg/expression"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/nlu"
)

func TestInjectFlattensAnalysisIntoVariables(t *testing.T) {
	t.Parallel()

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeMessageReceived, nil)

	nlu.Inject(executionCtx, nlu.Analysis{
		Intent: nlu.Intent{
			Intent:        "pricing_question",
			SubIntent:     "enterprise",
			Confidence:    0.92,
			Urgency:       7,
			Entities:      map[string]any{"plan": "pro"},
			RequiresHuman: false,
		},
		Sentiment: nlu.Sentiment{Sentiment: "positive", Score: 0.8},
	})

	assert.Equal(t, "pricing_question", executionCtx.GetVariable("intent", nil))
	assert.Equal(t, "enterprise", executionCtx.GetVariable("sub_intent", nil))
	assert.Equal(t, 0.92, executionCtx.GetVariable("intent_confidence", nil))
	assert.Equal(t, 7, executionCtx.GetVariable("urgency", nil))
	assert.Equal(t, false, executionCtx.GetVariable("requires_human", nil))
	assert.Equal(t, "positive", executionCtx.GetVariable("sentiment", nil))
	assert.Equal(t, 0.8, executionCtx.GetVariable("sentiment_score", nil))
}

func TestInjectedVariablesDriveConditions(t *testing.T) {
	t.Parallel()

	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeMessageReceived, nil)

	nlu.Inject(executionCtx, nlu.Analysis{
		Intent:    nlu.Intent{Intent: "complaint", Confidence: 0.97, Urgency: 9, RequiresHuman: true},
		Sentiment: nlu.Sentiment{Sentiment: "negative", Score: -0.6},
	})

	evaluator := expression.NewEvaluator()

	escalate, err := evaluator.EvalBool(
		`intent == "complaint" && intent_confidence > 0.9 && requires_human`,
		executionCtx,
	)
	assert.NoError(t, err)
	assert.True(t, escalate)

	calm, err := evaluator.EvalBool(`sentiment == "positive"`, executionCtx)
	assert.NoError(t, err)
	assert.False(t, calm)
}
