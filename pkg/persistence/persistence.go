// Package persistence defines the storage ports for flows and execution
// reports.
package persistence

import (
	"context"
	"errors"

	"github.com/fluxohq/fluxo/pkg/models"
)

var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrReportNotFound indicates an execution report was not found.
	ErrReportNotFound = errors.New("execution report not found")
)

// FlowRepository stores flow definitions.
type FlowRepository interface {
	All(ctx context.Context) ([]*models.Flow, error)
	GetByID(ctx context.Context, id string) (*models.Flow, error)
	Save(ctx context.Context, flow *models.Flow) error
	Delete(ctx context.Context, id string) error
}

// ReportRepository stores the reports produced by finished executions.
type ReportRepository interface {
	GetByID(ctx context.Context, executionID string) (*models.ExecutionReport, error)
	ListByFlow(ctx context.Context, flowID string) ([]*models.ExecutionReport, error)
	Save(ctx context.Context, report *models.ExecutionReport) error
}

// Persistence groups the repositories behind a single connectable unit.
type Persistence interface {
	FlowRepository() FlowRepository
	ReportRepository() ReportRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
