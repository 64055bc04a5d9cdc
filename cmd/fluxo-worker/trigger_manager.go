package main

import (
	"context"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
	webhooktrigger "github.com/fluxohq/fluxo/pkg/triggers/webhook"
)

// TriggerManager starts one trigger per stored flow that declares a trigger
// config in its metadata. Fired triggers become flow.triggered events on the
// bus; the worker manager picks them up from there.
type TriggerManager struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	webhookPort int

	triggers []protocol.Trigger
}

func NewTriggerManager(
	logger *slog.Logger,
	pers persistence.Persistence,
	reg *registry.Registry,
	bus eventbus.EventBus,
	webhookPort int,
) *TriggerManager {
	return &TriggerManager{
		logger:      logger.With("module", "trigger_manager"),
		persistence: pers,
		registry:    reg,
		eventBus:    bus,
		webhookPort: webhookPort,
	}
}

func (tm *TriggerManager) Start(ctx context.Context) error {
	flows, err := tm.persistence.FlowRepository().All(ctx)
	if err != nil {
		return err
	}

	manager := webhooktrigger.GetServerManager(tm.webhookPort, tm.logger)
	if err := manager.Start(ctx); err != nil {
		return err
	}

	for _, flow := range flows {
		config := triggerConfig(flow)
		if config == nil {
			continue
		}

		triggerID, _ := config["type"].(string)
		if triggerID == "" {
			continue
		}

		trigger, err := tm.registry.CreateTrigger(ctx, triggerID, config)
		if err != nil {
			tm.logger.ErrorContext(ctx, "Failed to create trigger",
				"flow_id", flow.ID, "trigger_id", triggerID, "error", err)

			continue
		}

		tm.triggers = append(tm.triggers, trigger)

		go func(flowID string) {
			err := trigger.Start(ctx, tm.callback)
			if err != nil {
				tm.logger.ErrorContext(ctx, "Trigger stopped with error",
					"flow_id", flowID, "error", err)
			}
		}(flow.ID)

		tm.logger.InfoContext(ctx, "Trigger started", "flow_id", flow.ID, "trigger_id", triggerID)
	}

	return nil
}

func (tm *TriggerManager) Stop(ctx context.Context) {
	for _, trigger := range tm.triggers {
		if err := trigger.Stop(ctx); err != nil {
			tm.logger.ErrorContext(ctx, "Failed to stop trigger", "error", err)
		}
	}
}

func (tm *TriggerManager) callback(ctx context.Context, input protocol.TriggerInput) error {
	event := events.FlowTriggered{
		BaseEvent:   events.NewBaseEvent(events.FlowTriggeredEvent, input.FlowID),
		TriggerType: input.TriggerType,
		TriggerData: input.Payload,
	}

	return tm.eventBus.Publish(ctx, input.FlowID, event)
}

// triggerConfig reads the trigger declaration out of flow metadata, injecting
// the flow ID so trigger factories can validate it.
func triggerConfig(flow *models.Flow) map[string]any {
	raw, ok := flow.Metadata["trigger"].(map[string]any)
	if !ok {
		return nil
	}

	config := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		config[k] = v
	}

	config["flow_id"] = flow.ID

	return config
}
