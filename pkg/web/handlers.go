// Package web provides the REST API for flow management and execution.
package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/fluxohq/fluxo/pkg/interpreter"
	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
	"github.com/fluxohq/fluxo/pkg/protocol"
	"github.com/fluxohq/fluxo/pkg/registry"
)

type APIHandlers struct {
	persistence persistence.Persistence
	interpreter *interpreter.Interpreter
	validator   *validator.Validate
	registry    *registry.Registry
}

func NewAPIHandlers(
	pers persistence.Persistence,
	interp *interpreter.Interpreter,
	validate *validator.Validate,
	reg *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		persistence: pers,
		interpreter: interp,
		validator:   validate,
		registry:    reg,
	}
}

type CreateFlowRequest struct {
	Name        string             `json:"name"         validate:"required,min=1,max=255"`
	Description string             `json:"description"  validate:"max=1024"`
	TriggerType models.TriggerType `json:"trigger_type" validate:"required"`
	EntryNodeID *string            `json:"entry_node_id,omitempty"`
	Nodes       []*models.FlowNode `json:"nodes"`
	Edges       []*models.FlowEdge `json:"edges"`
	Variables   map[string]any     `json:"variables"`
	Metadata    map[string]any     `json:"metadata"`
}

type ExecuteFlowRequest struct {
	TriggerType models.TriggerType `json:"trigger_type"`
	Payload     map[string]any     `json:"payload"`
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.persistence.FlowRepository().All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"flows":       flows,
		"total_count": len(flows),
	})
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !req.TriggerType.Valid() {
		return badRequest(c, "Unknown trigger type: "+string(req.TriggerType))
	}

	flow := &models.Flow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		TriggerType: req.TriggerType,
		EntryNodeID: req.EntryNodeID,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Variables:   req.Variables,
		Metadata:    req.Metadata,
	}

	if err := h.persistence.FlowRepository().Save(c.Context(), flow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(flow)
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.persistence.FlowRepository().GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrFlowNotFound) {
			return notFound(c, "Flow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(flow)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	repo := h.persistence.FlowRepository()

	existing, err := repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrFlowNotFound) {
			return notFound(c, "Flow not found")
		}

		return internalError(c, err)
	}

	var req CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.TriggerType = req.TriggerType
	existing.EntryNodeID = req.EntryNodeID
	existing.Nodes = req.Nodes
	existing.Edges = req.Edges
	existing.Variables = req.Variables
	existing.Metadata = req.Metadata

	if err := repo.Save(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.persistence.FlowRepository().Delete(c.Context(), id); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateFlow runs structural validation without executing anything.
func (h *APIHandlers) ValidateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.persistence.FlowRepository().GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrFlowNotFound) {
			return notFound(c, "Flow not found")
		}

		return internalError(c, err)
	}

	result := h.interpreter.Validate(flow)

	return c.JSON(result)
}

// ExecuteFlow runs the flow synchronously and returns the finished report.
func (h *APIHandlers) ExecuteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	flow, err := h.persistence.FlowRepository().GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrFlowNotFound) {
			return notFound(c, "Flow not found")
		}

		return internalError(c, err)
	}

	var req ExecuteFlowRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	triggerType := req.TriggerType
	if triggerType == "" {
		triggerType = models.TriggerTypeManual
	}

	if !triggerType.Valid() {
		return badRequest(c, "Unknown trigger type: "+string(triggerType))
	}

	report, err := h.interpreter.Run(c.Context(), flow, protocol.TriggerInput{
		FlowID:      flow.ID,
		TriggerType: triggerType,
		Payload:     req.Payload,
	})
	if err != nil {
		return unprocessable(c, err.Error())
	}

	if saveErr := h.persistence.ReportRepository().Save(c.Context(), report); saveErr != nil {
		return internalError(c, saveErr)
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	report, err := h.persistence.ReportRepository().GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, persistence.ErrReportNotFound) {
			return notFound(c, "Execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(report)
}

func (h *APIHandlers) ListFlowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	reports, err := h.persistence.ReportRepository().ListByFlow(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  reports,
		"total_count": len(reports),
	})
}

// GetNodeTypes lists the node types the registry can execute.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"node_types": h.registry.NodeTypes(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Fluxo API is healthy"
	httpStatus := http.StatusOK

	if err != nil {
		status = "unhealthy"
		message = "Fluxo API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
