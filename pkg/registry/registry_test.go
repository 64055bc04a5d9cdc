package registry_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type greetFactory struct{}

func (f *greetFactory) ID() string { return "greet" }

func (f *greetFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"name"},
	}
}

func (f *greetFactory) Create(config map[string]any) (protocol.Handler, error) {
	name, _ := config["name"].(string)

	return &greetHandler{name: name}, nil
}

type greetHandler struct {
	name string
}

func (h *greetHandler) Execute(_ context.Context, _ *models.FlowNode, _ *models.ExecutionContext, _ *slog.Logger) models.ExecutionResult {
	return models.Succeed(map[string]any{"greeting": "hello " + h.name})
}

func TestRegistryCreateHandler(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterHandler(&greetFactory{})

	handler, err := reg.CreateHandler("greet", map[string]any{"name": "ana"})
	require.NoError(t, err)
	require.NotNil(t, handler)

	result := handler.Execute(context.Background(), nil, nil, testLogger())
	assert.True(t, result.Success)
	assert.Equal(t, "hello ana", result.Output["greeting"])
}

func TestRegistryCreateHandlerUnknownType(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())

	_, err := reg.CreateHandler("teleport", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistryRejectsConfigViolatingSchema(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterHandler(&greetFactory{})

	tests := []struct {
		name   string
		config map[string]any
	}{
		{name: "missing required field", config: map[string]any{}},
		{name: "nil config", config: nil},
		{name: "wrong type", config: map[string]any{"name": 42}},
		{name: "empty string", config: map[string]any{"name": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := reg.CreateHandler("greet", tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestRegistryValidateConfig(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterHandler(&greetFactory{})

	assert.NoError(t, reg.ValidateConfig("greet", map[string]any{"name": "ana"}))
	assert.Error(t, reg.ValidateConfig("greet", map[string]any{}))
	assert.Error(t, reg.ValidateConfig("unknown", nil))
}

func TestRegistryNodeTypesSorted(t *testing.T) {
	t.Parallel()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterHandler(&greetFactory{})

	assert.True(t, reg.HasHandler("greet"))
	assert.False(t, reg.HasHandler("other"))
	assert.Equal(t, []string{"greet"}, reg.NodeTypes())
}
