package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

type stubRunRepository struct {
	recorded []domain.PipelineRun
	err      error
}

func (s *stubRunRepository) RecordRuns(ctx context.Context, runs []domain.PipelineRun) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, runs...)
	return nil
}

func (s *stubRunRepository) ListRecentRuns(ctx context.Context, projectID string, limit int) ([]domain.PipelineRun, error) {
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordSnapshotFlattensPipelines(t *testing.T) {
	seenAt := time.Date(2025, time.November, 5, 12, 0, 0, 0, time.UTC)
	started := seenAt.Add(-2 * time.Minute)

	repo := &stubRunRepository{}
	rec := NewRecorder(repo, discardLogger())
	rec.now = func() time.Time { return seenAt }

	projects := []domain.Project{
		{
			ID:   "p1",
			Name: "frontend",
			Pipelines: []domain.Pipeline{
				{SHA: "abc", Author: "alice", Message: "ship", CreatedAt: started, CommitCreatedAt: started},
				{SHA: "old", Author: "bob", Message: "fix", CreatedAt: started.Add(-time.Hour)},
			},
		},
		{ID: "p2", Name: "backend"},
	}
	if err := rec.RecordSnapshot(context.Background(), projects); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.recorded) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(repo.recorded))
	}
	first := repo.recorded[0]
	if first.ProjectID != "p1" || first.ProjectName != "frontend" || first.SHA != "abc" {
		t.Fatalf("unexpected run mapping %+v", first)
	}
	if !first.StartedAt.Equal(started) {
		t.Fatalf("started_at must come from the pipeline, got %v", first.StartedAt)
	}
	if !first.FirstSeenAt.Equal(seenAt) {
		t.Fatalf("first_seen_at must come from the recorder clock, got %v", first.FirstSeenAt)
	}
}

func TestRecordSnapshotEmpty(t *testing.T) {
	repo := &stubRunRepository{err: errors.New("must not be called")}
	rec := NewRecorder(repo, discardLogger())
	if err := rec.RecordSnapshot(context.Background(), []domain.Project{{ID: "p1"}}); err != nil {
		t.Fatalf("snapshot without pipelines must not hit the repository: %v", err)
	}
}
