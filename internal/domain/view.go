package domain

import "time"

// ViewPipeline is the render-ready projection of a pipeline, recomputed from
// scratch on every render pass and never mutated in place.
type ViewPipeline struct {
	ProgressSeconds  float64   `json:"progress_seconds"`
	RemainingSeconds float64   `json:"remaining_seconds"`
	ProgressPercent  float64   `json:"progress_percent"`
	Author           string    `json:"author"`
	Message          string    `json:"message"`
	CreatedAt        time.Time `json:"created_at"`
}

// ViewProject splits a project's pipelines into builds of the current commit
// and builds of older commits. Every pipeline lands in exactly one of the two
// lists, in source order.
type ViewProject struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Image           string         `json:"image"`
	Status          *string        `json:"status,omitempty"`
	CommitSHA       string         `json:"commit_sha"`
	CommitAuthor    string         `json:"commit_author"`
	CommitMessage   string         `json:"commit_message"`
	CommitCreatedAt time.Time      `json:"commit_created_at"`
	Current         []ViewPipeline `json:"current"`
	Previous        []ViewPipeline `json:"previous"`
}
