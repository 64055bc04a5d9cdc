// Package file provides file-based persistence for flows and execution
// reports.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/fluxohq/fluxo/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory tree:
// flows under <root>/flows and reports under <root>/executions.
type Persistence struct {
	root       string
	flowRepo   *FlowRepository
	reportRepo *ReportRepository
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:       cleanRoot,
		flowRepo:   NewFlowRepository(cleanRoot),
		reportRepo: NewReportRepository(cleanRoot),
	}
}

func (p *Persistence) FlowRepository() persistence.FlowRepository {
	return p.flowRepo
}

func (p *Persistence) ReportRepository() persistence.ReportRepository {
	return p.reportRepo
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
