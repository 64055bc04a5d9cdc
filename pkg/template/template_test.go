package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/template"
)

func newContext() *models.ExecutionContext {
	executionCtx := models.NewExecutionContext("exec-1", "flow-1", models.TriggerTypeLeadCreated, map[string]any{
		"email": "ana@example.com",
	})
	executionCtx.SetVariable("name", "Ana")
	executionCtx.SetVariable("score", 75)

	return executionCtx
}

func TestRenderWithContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain string passes through",
			input:    "hello",
			expected: "hello",
		},
		{
			name:     "variable substitution",
			input:    "Hello {{.variables.name}}",
			expected: "Hello Ana",
		},
		{
			name:     "vars alias",
			input:    "{{.vars.name}} scored {{.vars.score}}",
			expected: "Ana scored 75",
		},
		{
			name:     "trigger data",
			input:    "to: {{.trigger_data.email}}",
			expected: "to: ana@example.com",
		},
		{
			name:     "execution identity",
			input:    "{{.execution.id}}/{{.execution.flow_id}}",
			expected: "exec-1/flow-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := template.RenderWithContext(tt.input, newContext())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestRenderWithContextInvalidTemplate(t *testing.T) {
	t.Parallel()

	_, err := template.RenderWithContext("{{.variables.name", newContext())
	require.Error(t, err)
}

func TestRenderConfigRecursesIntoNestedValues(t *testing.T) {
	t.Parallel()

	config := map[string]any{
		"subject": "Welcome {{.variables.name}}",
		"retry":   map[string]any{"attempts": 3.0},
		"nested": map[string]any{
			"body": "score is {{.variables.score}}",
		},
		"recipients": []any{"{{.trigger_data.email}}", "ops@example.com"},
		"enabled":    true,
	}

	rendered, err := template.RenderConfig(config, newContext())
	require.NoError(t, err)

	assert.Equal(t, "Welcome Ana", rendered["subject"])
	assert.Equal(t, map[string]any{"attempts": 3.0}, rendered["retry"])
	assert.Equal(t, "score is 75", rendered["nested"].(map[string]any)["body"])
	assert.Equal(t, []any{"ana@example.com", "ops@example.com"}, rendered["recipients"])
	assert.Equal(t, true, rendered["enabled"])
}
