package domain

import "time"

// Pipeline is one CI build run tied to a specific commit.
type Pipeline struct {
	SHA             string
	Author          string
	Message         string
	CommitCreatedAt time.Time
	CreatedAt       time.Time
}

// Project is the latest upstream snapshot of a monitored project. Snapshots
// are replaced wholesale on every feed message; fields are never merged.
type Project struct {
	ID              string
	Name            string
	Image           string
	Status          *string
	Duration        float64 // expected build duration in seconds; 0 means unknown
	CommitSHA       string
	CommitAuthor    string
	CommitMessage   string
	CommitCreatedAt time.Time
	UpdatedAt       time.Time
	Pipelines       []Pipeline
}

// ElementMetric reports the rendered height of one board card.
type ElementMetric struct {
	ID           string  `json:"id"`
	OffsetHeight float64 `json:"offsetHeight"`
}

// PipelineRun is a pipeline observation persisted to the history store.
type PipelineRun struct {
	ProjectID       string    `json:"project_id"`
	ProjectName     string    `json:"project_name"`
	SHA             string    `json:"sha"`
	Author          string    `json:"author"`
	Message         string    `json:"message"`
	CommitCreatedAt time.Time `json:"commit_created_at"`
	StartedAt       time.Time `json:"started_at"`
	FirstSeenAt     time.Time `json:"first_seen_at"`
}
