// Package template renders string config fields against execution context
// before a handler runs.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
)

// RenderWithContext renders a single config string. Variables are exposed
// as {{.variables.key}}, trigger payload as {{.trigger_data.key}}.
func RenderWithContext(input string, executionCtx *models.ExecutionContext) (string, error) {
	data := map[string]any{
		"variables":    executionCtx.Variables,
		"vars":         executionCtx.Variables,
		"trigger_data": executionCtx.TriggerData,
		"execution": map[string]any{
			"id":      executionCtx.ID,
			"flow_id": executionCtx.FlowID,
		},
	}

	return Render(input, data)
}

// Render executes the template string against data.
func Render(templateStr string, data any) (string, error) {
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}

	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	return buf.String(), nil
}

// RenderConfig renders every string value of a config map, recursing into
// nested maps and slices. Non-string values pass through untouched.
func RenderConfig(config map[string]any, executionCtx *models.ExecutionContext) (map[string]any, error) {
	rendered := make(map[string]any, len(config))

	for key, value := range config {
		out, err := renderValue(value, executionCtx)
		if err != nil {
			return nil, fmt.Errorf("config key %q: %w", key, err)
		}

		rendered[key] = out
	}

	return rendered, nil
}

func renderValue(value any, executionCtx *models.ExecutionContext) (any, error) {
	switch v := value.(type) {
	case string:
		return RenderWithContext(v, executionCtx)
	case map[string]any:
		return RenderConfig(v, executionCtx)
	case []any:
		rendered := make([]any, len(v))

		for i, item := range v {
			out, err := renderValue(item, executionCtx)
			if err != nil {
				return nil, err
			}

			rendered[i] = out
		}

		return rendered, nil
	default:
		return value, nil
	}
}
