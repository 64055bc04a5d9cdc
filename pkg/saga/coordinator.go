// Package saga tracks executed side-effecting steps and invokes their
// compensations in reverse order when a run fails.
package saga

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/protocol"
)

// recordedStep is one successfully executed compensable step. The recorded
// output lets compensation target the exact side effect that was created
// (the specific uploaded asset id, not "the last upload").
type recordedStep struct {
	nodeID      string
	nodeType    string
	output      map[string]any
	compensator protocol.Compensator
}

// Coordinator owns the compensation ordering policy and the aggregation of
// compensation failures. Handlers only implement the compensation action.
type Coordinator struct {
	logger *slog.Logger
	status models.SagaStatus
	steps  []recordedStep
	log    []models.CompensationLogEntry
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger: logger.With("module", "saga"),
		status: models.SagaStatusPending,
		steps:  make([]recordedStep, 0),
		log:    make([]models.CompensationLogEntry, 0),
	}
}

func (c *Coordinator) Begin() {
	c.status = models.SagaStatusRunning
}

// Record registers a successfully executed compensable step in execution
// order.
func (c *Coordinator) Record(nodeID, nodeType string, output map[string]any, compensator protocol.Compensator) {
	c.steps = append(c.steps, recordedStep{
		nodeID:      nodeID,
		nodeType:    nodeType,
		output:      output,
		compensator: compensator,
	})
}

// Complete marks the saga finished without compensation.
func (c *Coordinator) Complete() {
	c.status = models.SagaStatusCompleted
}

// Compensate unwinds every recorded step in reverse chronological order.
// Best effort: a failed compensation is logged and collected but does not
// stop the remaining ones, and nothing is retried.
func (c *Coordinator) Compensate(ctx context.Context, executionCtx *models.ExecutionContext) []models.CompensationOutcome {
	c.status = models.SagaStatusCompensating

	outcomes := make([]models.CompensationOutcome, 0, len(c.steps))

	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]

		logger := c.logger.With(
			"execution_id", executionCtx.ID,
			"node_id", step.nodeID,
			"node_type", step.nodeType,
		)
		logger.InfoContext(ctx, "Compensating step")

		outcome := step.compensator.Compensate(ctx, executionCtx, step.output, logger)
		outcome.NodeID = step.nodeID

		if !outcome.OK {
			logger.WarnContext(ctx, "Compensation failed", "error", outcome.Error)
		}

		outcomes = append(outcomes, outcome)
		c.log = append(c.log, models.CompensationLogEntry{
			NodeID:        step.nodeID,
			OK:            outcome.OK,
			Error:         outcome.Error,
			CompensatedAt: time.Now().UTC(),
		})
	}

	c.status = models.SagaStatusCompensated

	return outcomes
}

func (c *Coordinator) Status() models.SagaStatus {
	return c.status
}

// Log returns the compensation log accumulated so far.
func (c *Coordinator) Log() []models.CompensationLogEntry {
	return c.log
}

// Recorded returns how many compensable steps are currently tracked.
func (c *Coordinator) Recorded() int {
	return len(c.steps)
}
