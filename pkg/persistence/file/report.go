package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/fluxohq/fluxo/pkg/models"
	"github.com/fluxohq/fluxo/pkg/persistence"
)

// ReportRepository handles execution-report file operations.
type ReportRepository struct {
	root string
}

func NewReportRepository(root string) *ReportRepository {
	return &ReportRepository{root: root}
}

// GetByID retrieves an execution report by execution ID.
func (rr *ReportRepository) GetByID(_ context.Context, executionID string) (*models.ExecutionReport, error) {
	filePath := filepath.Clean(path.Join(rr.root, "executions", executionID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrReportNotFound
		}

		return nil, fmt.Errorf("failed to fetch execution report %s: %w", executionID, err)
	}

	var report models.ExecutionReport

	err = json.Unmarshal(body, &report)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution report %s: %w", executionID, err)
	}

	return &report, nil
}

// ListByFlow returns every report for the given flow, newest first.
func (rr *ReportRepository) ListByFlow(ctx context.Context, flowID string) ([]*models.ExecutionReport, error) {
	root := os.DirFS(path.Join(rr.root, "executions"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution report files: %w", err)
	}

	reports := make([]*models.ExecutionReport, 0)

	for _, file := range jsonFiles {
		executionID := file[:len(file)-5]

		report, err := rr.GetByID(ctx, executionID)
		if err != nil {
			return nil, err
		}

		if report.FlowID == flowID {
			reports = append(reports, report)
		}
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].FinishedAt.After(reports[j].FinishedAt)
	})

	return reports, nil
}

// Save writes an execution report to the file system.
func (rr *ReportRepository) Save(_ context.Context, report *models.ExecutionReport) error {
	err := os.MkdirAll(path.Join(rr.root, "executions"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal execution report %s: %w", report.ExecutionID, err)
	}

	filePath := path.Join(rr.root, "executions", report.ExecutionID+".json")

	return os.WriteFile(filePath, data, 0600)
}
