package webhook_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/triggers/webhook"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewTriggerValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  map[string]any
		wantErr string
	}{
		{
			name:   "valid config",
			config: map[string]any{"flow_id": "flow-1", "path": "/hooks/lead"},
		},
		{
			name:   "defaults path",
			config: map[string]any{"flow_id": "flow-1"},
		},
		{
			name:    "missing flow_id",
			config:  map[string]any{"path": "/hooks/lead"},
			wantErr: "flow_id is required",
		},
		{
			name:    "path without leading slash",
			config:  map[string]any{"flow_id": "flow-1", "path": "hooks/lead"},
			wantErr: "must start with '/'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger, err := webhook.NewTrigger(context.Background(), tt.config, testLogger())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "flow-1", trigger.FlowID)
			assert.True(t, trigger.Enabled)
		})
	}
}

func TestNewTriggerHonorsEnabledFlag(t *testing.T) {
	t.Parallel()

	trigger, err := webhook.NewTrigger(context.Background(), map[string]any{
		"flow_id": "flow-1",
		"path":    "/hooks/lead",
		"enabled": false,
	}, testLogger())
	require.NoError(t, err)

	assert.False(t, trigger.Enabled)

	// Disabled triggers start and return immediately without touching the
	// shared server.
	assert.NoError(t, trigger.Start(context.Background(), nil))
}

func TestFactoryRejectsNilConfig(t *testing.T) {
	t.Parallel()

	factory := webhook.NewTriggerFactory()
	assert.Equal(t, "webhook", factory.ID())

	_, err := factory.Create(context.Background(), nil, testLogger())
	require.Error(t, err)
}
