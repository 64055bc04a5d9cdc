package schedule_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxohq/fluxo/pkg/triggers/schedule"
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
			name:   "valid standard expression",
			config: map[string]any{"flow_id": "flow-1", "cron": "*/5 * * * *"},
		},
		{
			name:   "valid descriptor",
			config: map[string]any{"flow_id": "flow-1", "cron": "@hourly"},
		},
		{
			name:    "missing flow_id",
			config:  map[string]any{"cron": "* * * * *"},
			wantErr: "flow_id is required",
		},
		{
			name:    "missing cron",
			config:  map[string]any{"flow_id": "flow-1"},
			wantErr: "cron expression is required",
		},
		{
			name:    "malformed cron",
			config:  map[string]any{"flow_id": "flow-1", "cron": "not a cron"},
			wantErr: "invalid cron expression",
		},
		{
			name:    "too many fields",
			config:  map[string]any{"flow_id": "flow-1", "cron": "* * * * * * *"},
			wantErr: "invalid cron expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trigger, err := schedule.NewTrigger(tt.config, testLogger())

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "flow-1", trigger.FlowID)
		})
	}
}

func TestFactoryRejectsNilConfig(t *testing.T) {
	t.Parallel()

	factory := schedule.NewTriggerFactory()
	assert.Equal(t, "schedule", factory.ID())

	_, err := factory.Create(context.Background(), nil, testLogger())
	require.Error(t, err)
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	t.Parallel()

	trigger, err := schedule.NewTrigger(map[string]any{"flow_id": "flow-1", "cron": "@daily"}, testLogger())
	require.NoError(t, err)

	assert.NoError(t, trigger.Stop(context.Background()))
}
