// Package interpreter drives one flow run at a time: it advances the
// execution context node by node, resolves successors, and hands failures
// to the saga coordinator.
package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxohq/fluxo/pkg/eventbus"
	"github.com/fluxohq/fluxo/pkg/events"
	"github.com/fluxohq/fluxo/pkg/expression"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/nlu"
	"github.com/fluxohq/fluxo/pkg/otelhelper"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
	"github.com/fluxohq/fluxo/pkg/saga"
	"github.com/fluxohq/fluxo/pkg/template"
	"github.com/fluxohq/fluxo/pkg/validation"
)

// DefaultMaxSteps bounds a run when no explicit limit is configured. The
// exact bound is configurable, not normative.
const DefaultMaxSteps = 1000

const defaultRetryAttempts = 1

type Interpreter struct {
	registry  *registry.Registry
	validator *validation.Validator
	evaluator *expression.Evaluator
	publisher eventbus.EventPublisher
	analyzer  nlu.Analyzer
	tracer    trace.Tracer
	logger    *slog.Logger
	maxSteps  int
	workerID  string

	validationMu    sync.Mutex
	validationCache map[string]models.ValidationResult
}

type Option func(*Interpreter)

// WithMaxSteps overrides the global step bound.
func WithMaxSteps(maxSteps int) Option {
	return func(i *Interpreter) {
		if maxSteps > 0 {
			i.maxSteps = maxSteps
		}
	}
}

// WithPublisher attaches an event publisher for lifecycle events.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(i *Interpreter) {
		i.publisher = publisher
	}
}

// WithAnalyzer attaches the NLU collaborator. When set, message_received
// runs get intent and sentiment variables injected before the first step.
func WithAnalyzer(analyzer nlu.Analyzer) Option {
	return func(i *Interpreter) {
		i.analyzer = analyzer
	}
}

// WithTracer attaches a tracer producing one span per run and per step.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *Interpreter) {
		i.tracer = tracer
	}
}

func WithWorkerID(workerID string) Option {
	return func(i *Interpreter) {
		i.workerID = workerID
	}
}

func New(reg *registry.Registry, logger *slog.Logger, opts ...Option) *Interpreter {
	interpreter := &Interpreter{
		registry:        reg,
		validator:       validation.NewValidator(reg),
		evaluator:       expression.NewEvaluator(),
		logger:          logger.With("module", "interpreter"),
		maxSteps:        DefaultMaxSteps,
		validationCache: make(map[string]models.ValidationResult),
	}

	for _, opt := range opts {
		opt(interpreter)
	}

	return interpreter
}

// Validate runs (or returns the cached) pre-flight validation for the flow,
// keyed by the graph's content hash.
func (i *Interpreter) Validate(flow *models.Flow) models.ValidationResult {
	sum := validation.GraphSum(flow)

	i.validationMu.Lock()
	defer i.validationMu.Unlock()

	if cached, ok := i.validationCache[sum]; ok {
		return cached
	}

	result := i.validator.Validate(flow)
	i.validationCache[sum] = result

	return result
}

// Run executes one flow against one trigger input and returns the terminal
// report. The returned error is non-nil only for pre-flight rejections; a
// run that starts always produces a report, whatever its final state.
func (i *Interpreter) Run(ctx context.Context, flow *models.Flow, input protocol.TriggerInput) (*models.ExecutionReport, error) {
	result := i.Validate(flow)
	if !result.IsValid {
		return nil, fmt.Errorf("flow %s failed validation: %v", flow.ID, result.Errors)
	}

	entryID := i.validator.EntryNode(flow)
	if entryID == "" {
		return nil, fmt.Errorf("flow %s has no resolvable entry point", flow.ID)
	}

	executionCtx := models.NewExecutionContext(
		"exec-"+uuid.New().String(),
		flow.ID,
		input.TriggerType,
		input.Payload,
	)

	for key, value := range flow.Variables {
		executionCtx.SetVariable(key, value)
	}

	for key, value := range input.Payload {
		executionCtx.SetVariable(key, value)
	}

	if correlate, ok := input.Payload["correlate"].(string); ok {
		executionCtx.Correlate = correlate
	}

	if i.analyzer != nil && input.TriggerType == models.TriggerTypeMessageReceived {
		if message, ok := input.Payload["message"].(string); ok && message != "" {
			analysis, err := i.analyzer.Analyze(ctx, message)
			if err != nil {
				// Analysis is an enrichment, not a gate. The run proceeds on
				// the raw payload.
				i.logger.WarnContext(ctx, "Message analysis failed", "flow_id", flow.ID, "error", err)
			} else {
				nlu.Inject(executionCtx, analysis)
			}
		}
	}

	executionCtx.CurrentNodeID = &entryID

	logger := i.logger.With(
		"flow_id", flow.ID,
		"execution_id", executionCtx.ID,
		"trigger_type", input.TriggerType,
	)
	logger.InfoContext(ctx, "Starting flow execution", "entry_node", entryID)

	if i.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, i.tracer, "flow.execute",
			attribute.String(otelhelper.FlowIDKey, flow.ID),
			attribute.String(otelhelper.ExecutionIDKey, executionCtx.ID),
			attribute.String(otelhelper.TriggerTypeKey, string(input.TriggerType)),
		)
		defer span.End()
	}

	i.publish(ctx, executionCtx.ID, events.ExecutionStarted{
		BaseEvent:   i.baseEvent(events.ExecutionStartedEvent, flow.ID),
		ExecutionID: executionCtx.ID,
		TriggerType: input.TriggerType,
		EntryNodeID: entryID,
	})

	run := &runState{
		flow:         flow,
		executionCtx: executionCtx,
		coordinator:  saga.NewCoordinator(logger),
		logger:       logger,
	}
	run.coordinator.Begin()

	return i.loop(ctx, run), nil
}

type runState struct {
	flow         *models.Flow
	executionCtx *models.ExecutionContext
	coordinator  *saga.Coordinator
	logger       *slog.Logger
	steps        int
	failures     int
}

func (i *Interpreter) loop(ctx context.Context, run *runState) *models.ExecutionReport {
	for run.executionCtx.CurrentNodeID != nil {
		if err := ctx.Err(); err != nil {
			// Cancellation is run-scoped: we stop before the next step
			// begins, then compensate whatever did complete.
			run.logger.WarnContext(context.WithoutCancel(ctx), "Run cancelled", "error", err)

			return i.fail(context.WithoutCancel(ctx), run, *run.executionCtx.CurrentNodeID, "", fmt.Errorf("run cancelled: %w", err))
		}

		if run.steps >= i.maxSteps {
			return i.abort(ctx, run)
		}

		run.steps++

		nodeID := *run.executionCtx.CurrentNodeID

		node := run.flow.NodeByID(nodeID)
		if node == nil {
			return i.fail(ctx, run, nodeID, "", fmt.Errorf("node %q not found in flow %s", nodeID, run.flow.ID))
		}

		result := i.executeNode(ctx, run, node)

		run.executionCtx.AddToHistory(models.HistoryEntry{
			NodeID:   node.ID,
			NodeType: node.Type,
			Output:   result.Output,
			Success:  result.Success,
			Error:    result.Error,
		})
		run.executionCtx.MergeOutput(node.ID, result.Output)

		if !result.Success {
			run.failures++

			return i.fail(ctx, run, node.ID, node.Type, fmt.Errorf("node %q failed: %s", node.ID, result.Error))
		}

		nextNodeID, err := i.nextNode(run, node, result)
		if err != nil {
			return i.fail(ctx, run, node.ID, node.Type, err)
		}

		run.executionCtx.CurrentNodeID = nextNodeID
	}

	return i.complete(ctx, run)
}

// executeNode runs one node's handler with config templating, per-node
// retry, and panic recovery. A panicking or erroring handler becomes a
// failed result; it never propagates past the step boundary.
func (i *Interpreter) executeNode(ctx context.Context, run *runState, node *models.FlowNode) models.ExecutionResult {
	logger := run.logger.With("node_id", node.ID, "node_type", node.Type)

	if i.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, i.tracer, "flow.step",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, node.Type),
		)
		defer span.End()
	}

	startedAt := time.Now()

	config, err := template.RenderConfig(node.Config, run.executionCtx)
	if err != nil {
		return models.Fail(fmt.Errorf("failed to render config: %w", err), nil)
	}

	handler, err := i.registry.CreateHandler(node.Type, config)
	if err != nil {
		return models.Fail(err, nil)
	}

	rendered := *node
	rendered.Config = config

	attempts := retryAttempts(node)
	delay := retryDelay(node)

	var result models.ExecutionResult

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying node", "attempt", attempt, "max_attempts", attempts)
			time.Sleep(delay)
		}

		result = i.executeOnce(ctx, handler, &rendered, run.executionCtx, logger)
		if result.Success {
			break
		}
	}

	durationMs := time.Since(startedAt).Milliseconds()

	if result.Success {
		logger.InfoContext(ctx, "Node finished", "duration_ms", durationMs)

		if compensator, ok := handler.(protocol.Compensator); ok {
			run.coordinator.Record(node.ID, node.Type, result.Output, compensator)
		}

		i.publish(ctx, run.executionCtx.ID, events.NodeFinished{
			BaseEvent:   i.baseEvent(events.NodeFinishedEvent, run.flow.ID),
			ExecutionID: run.executionCtx.ID,
			NodeID:      node.ID,
			NodeType:    node.Type,
			Output:      result.Output,
			DurationMs:  durationMs,
		})
	} else {
		logger.ErrorContext(ctx, "Node failed", "error", result.Error, "duration_ms", durationMs)
		i.publish(ctx, run.executionCtx.ID, events.NodeFailed{
			BaseEvent:   i.baseEvent(events.NodeFailedEvent, run.flow.ID),
			ExecutionID: run.executionCtx.ID,
			NodeID:      node.ID,
			NodeType:    node.Type,
			Error:       result.Error,
			DurationMs:  durationMs,
		})
	}

	return result
}

func (i *Interpreter) executeOnce(ctx context.Context, handler protocol.Handler, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) (result models.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			result = models.Fail(fmt.Errorf("handler panicked: %v", r), nil)
		}
	}()

	return handler.Execute(ctx, node, executionCtx, logger)
}

// nextNode resolves the successor in priority order: handler override,
// condition branch targets, first matching conditional edge, default next.
// A nil return completes the run.
func (i *Interpreter) nextNode(run *runState, node *models.FlowNode, result models.ExecutionResult) (*string, error) {
	if result.NextNodeID != nil && *result.NextNodeID != "" {
		return result.NextNodeID, nil
	}

	if node.TrueNodeID != nil || node.FalseNodeID != nil {
		if branchResult, ok := result.Output["result"].(bool); ok {
			target := node.FalseNodeID
			if branchResult {
				target = node.TrueNodeID
			}

			if target != nil && *target != "" {
				return target, nil
			}

			return nil, nil
		}
	}

	for _, edge := range run.flow.OutgoingEdges(node.ID) {
		if edge.Condition == "" {
			return &edge.Target, nil
		}

		matched, err := i.evaluator.EvalBool(edge.Condition, run.executionCtx)
		if err != nil {
			return nil, fmt.Errorf("edge %q condition: %w", edge.ID, err)
		}

		if matched {
			return &edge.Target, nil
		}
	}

	if node.Next != nil && *node.Next != "" {
		return node.Next, nil
	}

	return nil, nil
}

func (i *Interpreter) complete(ctx context.Context, run *runState) *models.ExecutionReport {
	run.coordinator.Complete()
	run.executionCtx.CurrentNodeID = nil

	duration := time.Since(run.executionCtx.StartedAt)
	run.logger.InfoContext(ctx, "Flow execution completed",
		"nodes_executed", run.steps,
		"duration_ms", duration.Milliseconds(),
	)

	i.publish(ctx, run.executionCtx.ID, events.ExecutionCompleted{
		BaseEvent:     i.baseEvent(events.ExecutionCompletedEvent, run.flow.ID),
		ExecutionID:   run.executionCtx.ID,
		NodesExecuted: run.steps,
		DurationMs:    duration.Milliseconds(),
	})

	return i.report(run, models.ExecutionStateCompleted, "")
}

func (i *Interpreter) fail(ctx context.Context, run *runState, nodeID, nodeType string, err error) *models.ExecutionReport {
	run.logger.ErrorContext(ctx, "Flow execution failed", "node_id", nodeID, "error", err)

	outcomes := run.coordinator.Compensate(ctx, run.executionCtx)

	failures := 0

	for _, outcome := range outcomes {
		if !outcome.OK {
			failures++
		}

		i.publish(ctx, run.executionCtx.ID, events.CompensationExecuted{
			BaseEvent:   i.baseEvent(events.CompensationExecutedEvent, run.flow.ID),
			ExecutionID: run.executionCtx.ID,
			NodeID:      outcome.NodeID,
			OK:          outcome.OK,
			Error:       outcome.Error,
		})
	}

	duration := time.Since(run.executionCtx.StartedAt)
	i.publish(ctx, run.executionCtx.ID, events.ExecutionFailed{
		BaseEvent:            i.baseEvent(events.ExecutionFailedEvent, run.flow.ID),
		ExecutionID:          run.executionCtx.ID,
		NodeID:               nodeID,
		Error:                err.Error(),
		CompensatedSteps:     len(outcomes),
		CompensationFailures: failures,
		DurationMs:           duration.Milliseconds(),
	})

	run.executionCtx.CurrentNodeID = nil

	return i.report(run, models.ExecutionStateFailed, err.Error())
}

func (i *Interpreter) abort(ctx context.Context, run *runState) *models.ExecutionReport {
	run.logger.WarnContext(ctx, "Flow execution aborted: step bound exceeded",
		"steps", run.steps,
		"max_steps", i.maxSteps,
	)

	i.publish(ctx, run.executionCtx.ID, events.ExecutionAborted{
		BaseEvent:   i.baseEvent(events.ExecutionAbortedEvent, run.flow.ID),
		ExecutionID: run.executionCtx.ID,
		Steps:       run.steps,
		MaxSteps:    i.maxSteps,
	})

	run.executionCtx.CurrentNodeID = nil

	return i.report(run, models.ExecutionStateAborted,
		fmt.Sprintf("step bound exceeded after %d steps", run.steps))
}

func (i *Interpreter) report(run *runState, state models.ExecutionState, errMessage string) *models.ExecutionReport {
	return &models.ExecutionReport{
		ExecutionID:     run.executionCtx.ID,
		FlowID:          run.flow.ID,
		FinalState:      state,
		SagaStatus:      run.coordinator.Status(),
		History:         run.executionCtx.History,
		Error:           errMessage,
		CompensationLog: run.coordinator.Log(),
		Stats: models.ExecutionStats{
			NodesExecuted: len(run.executionCtx.History),
			NodesFailed:   run.failures,
			Duration:      time.Since(run.executionCtx.StartedAt),
		},
		FinishedAt: time.Now().UTC(),
	}
}

func (i *Interpreter) baseEvent(eventType events.EventType, flowID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, flowID)
	base.WorkerID = i.workerID

	return base
}

func (i *Interpreter) publish(ctx context.Context, key string, event eventbus.Event) {
	if i.publisher == nil {
		return
	}

	err := i.publisher.Publish(ctx, key, event)
	if err != nil {
		i.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func retryAttempts(node *models.FlowNode) int {
	retry, ok := node.Config["retry"].(map[string]any)
	if !ok {
		return defaultRetryAttempts
	}

	attempts, ok := retry["attempts"].(float64)
	if !ok || attempts < 1 {
		return defaultRetryAttempts
	}

	return int(attempts)
}

func retryDelay(node *models.FlowNode) time.Duration {
	retry, ok := node.Config["retry"].(map[string]any)
	if !ok {
		return 0
	}

	delay, ok := retry["delay"].(float64)
	if !ok || delay < 0 {
		return 0
	}

	return time.Duration(delay * float64(time.Second))
}
