// Package protocol defines the interfaces and contracts for pluggable node
// handlers, triggers, and the external collaborators handlers call out to.
package protocol

import (
	"context"
	"log/slog"

	"github.com/fluxohq/fluxo/pkg/models"
)

// Handler executes one node type. Execute must convert expected failures
// into a failed ExecutionResult instead of returning an error; errors are
// reserved for faults the interpreter should still catch at the step
// boundary.
type Handler interface {
	Execute(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) models.ExecutionResult
}

// Compensator undoes a previously successful side effect. Implementations
// must be idempotent on repeated compensation and must report the outcome
// without panicking; a failed compensation never stops the remaining ones.
type Compensator interface {
	Compensate(ctx context.Context, executionCtx *models.ExecutionContext, priorOutput map[string]any, logger *slog.Logger) models.CompensationOutcome
}

// HandlerFactory creates handler instances and describes the node type.
type HandlerFactory interface {
	// ID returns the node type tag this factory serves.
	ID() string

	// Create builds a handler for the given node config. A malformed config
	// is a configuration error and must fail here, not at run time.
	Create(config map[string]any) (Handler, error)

	// Schema returns the JSON schema the node config is validated against.
	Schema() map[string]any
}
