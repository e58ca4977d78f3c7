package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
	"github.com/chenhm/gitlab-ci-monitor/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ repository.PipelineRunRepository = (*Repository)(nil)

// RecordRuns inserts pipeline runs, silently skipping runs already recorded.
func (r *Repository) RecordRuns(ctx context.Context, runs []domain.PipelineRun) error {
	if len(runs) == 0 {
		return nil
	}
	const query = `INSERT INTO pipeline_runs
		(project_id, project_name, sha, author, message, commit_created_at, started_at, first_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (project_id, sha, started_at) DO NOTHING`
	batch := &pgx.Batch{}
	for _, run := range runs {
		batch.Queue(query,
			run.ProjectID, run.ProjectName, run.SHA, run.Author, run.Message,
			run.CommitCreatedAt, run.StartedAt, run.FirstSeenAt)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range runs {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// ListRecentRuns returns the newest recorded runs for a project.
func (r *Repository) ListRecentRuns(ctx context.Context, projectID string, limit int) ([]domain.PipelineRun, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT project_id, project_name, sha, author, message, commit_created_at, started_at, first_seen_at
		FROM pipeline_runs
		WHERE project_id = $1
		ORDER BY started_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.PipelineRun
	for rows.Next() {
		var run domain.PipelineRun
		if err := rows.Scan(&run.ProjectID, &run.ProjectName, &run.SHA, &run.Author,
			&run.Message, &run.CommitCreatedAt, &run.StartedAt, &run.FirstSeenAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, repository.ErrNotFound
	}
	return runs, nil
}
