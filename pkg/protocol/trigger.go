package protocol

import (
	"context"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
)

// TriggerInput is what a trigger source hands the engine to start a run.
type TriggerInput struct {
	FlowID      string             `json:"flow_id"`
	TriggerType models.TriggerType `json:"trigger_type"`
	Payload     map[string]any     `json:"payload,omitempty"`
}

type TriggerCallback func(ctx context.Context, input TriggerInput) error

// Trigger is a source of run starts (cron schedule, queue consumer, webhook
// registration). Start blocks the trigger's own goroutine; Stop must be safe
// to call once after Start.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
	Validate(ctx context.Context) error
}

// TriggerFactory builds trigger instances from configuration.
type TriggerFactory interface {
	ID() string
	Create(ctx context.Context, config map[string]any, logger *slog.Logger) (Trigger, error)
}
