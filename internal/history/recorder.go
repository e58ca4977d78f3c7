// Package history records each accepted snapshot's pipelines for later review.
package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
	"github.com/chenhm/gitlab-ci-monitor/internal/repository"
)

// Recorder flattens project snapshots into pipeline run rows.
type Recorder struct {
	repo repository.PipelineRunRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewRecorder constructs a Recorder.
func NewRecorder(repo repository.PipelineRunRepository, log *slog.Logger) *Recorder {
	return &Recorder{repo: repo, log: log, now: time.Now}
}

// RecordSnapshot persists every pipeline in the snapshot. Runs seen in an
// earlier snapshot are deduplicated by the repository.
func (r *Recorder) RecordSnapshot(ctx context.Context, projects []domain.Project) error {
	seenAt := r.now().UTC()
	var runs []domain.PipelineRun
	for _, p := range projects {
		for _, pipe := range p.Pipelines {
			runs = append(runs, domain.PipelineRun{
				ProjectID:       p.ID,
				ProjectName:     p.Name,
				SHA:             pipe.SHA,
				Author:          pipe.Author,
				Message:         pipe.Message,
				CommitCreatedAt: pipe.CommitCreatedAt,
				StartedAt:       pipe.CreatedAt,
				FirstSeenAt:     seenAt,
			})
		}
	}
	if len(runs) == 0 {
		return nil
	}
	return r.repo.RecordRuns(ctx, runs)
}
