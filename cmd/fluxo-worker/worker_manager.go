package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
	"github.com/fluxohq/fluxo/pkg/interpreter"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
)

// WorkerManager consumes flow.triggered events and runs the interpreter for
// each one.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	interpreter *interpreter.Interpreter
}

func NewWorkerManager(
	id string,
	pers persistence.Persistence,
	bus eventbus.EventBus,
	logger *slog.Logger,
	reg *registry.Registry,
	interp *interpreter.Interpreter,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "fluxo-worker", "worker_id", id),
		persistence: pers,
		registry:    reg,
		eventBus:    bus,
		interpreter: interp,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.eventBus.Handle(events.FlowTriggeredEvent, w.handleFlowTriggered)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		w.logger.InfoContext(ctx, "Shutting down worker...")
	case <-ctx.Done():
		w.logger.InfoContext(ctx, "Context cancelled, shutting down worker...")
	}

	return nil
}

func (w *WorkerManager) handleFlowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.FlowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for FlowTriggered")

		return nil
	}

	logger := w.logger.With(
		"flow_id", triggeredEvent.FlowID,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(ctx, "Processing flow triggered event")

	flow, err := w.persistence.FlowRepository().GetByID(ctx, triggeredEvent.FlowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load flow", "error", err)

		return err
	}

	report, err := w.interpreter.Run(ctx, flow, protocol.TriggerInput{
		FlowID:      flow.ID,
		TriggerType: triggeredEvent.TriggerType,
		Payload:     triggeredEvent.TriggerData,
	})
	if err != nil {
		logger.ErrorContext(ctx, "Flow rejected before execution", "error", err)

		return err
	}

	err = w.persistence.ReportRepository().Save(ctx, report)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to save execution report", "error", err)

		return err
	}

	logger.InfoContext(ctx, "Flow run finished",
		"execution_id", report.ExecutionID,
		"final_state", report.FinalState,
		"nodes_executed", report.Stats.NodesExecuted,
	)

	return nil
}
