package repository

import (
	"context"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

// PipelineRunRepository persists observed pipeline runs.
type PipelineRunRepository interface {
	RecordRuns(ctx context.Context, runs []domain.PipelineRun) error
	ListRecentRuns(ctx context.Context, projectID string, limit int) ([]domain.PipelineRun, error)
}
