package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

// DecodeError reports a rejected feed payload. The whole payload is refused;
// the previous project list stays in effect.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "decode projects: " + e.Reason
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05 MST",
}

type wirePipeline struct {
	SHA             string  `json:"sha"`
	Author          string  `json:"author"`
	Message         string  `json:"message"`
	CommitCreatedAt string  `json:"commit_created_at"`
	CreatedAt       *string `json:"created_at"`
}

type wireProject struct {
	ID                string          `json:"id"`
	Name              *string         `json:"name"`
	Image             *string         `json:"image"`
	Status            *string         `json:"status"`
	Duration          *float64        `json:"duration"`
	LastCommitSHA     string          `json:"last_commit_sha"`
	LastCommitAuthor  *string         `json:"last_commit_author"`
	LastCommitMessage *string         `json:"last_commit_message"`
	UpdatedAt         *string         `json:"updated_at"`
	Pipelines         *[]wirePipeline `json:"pipelines"`
}

// DecodeProjects parses a feed payload into domain projects. Any missing
// required field or malformed date rejects the payload as a whole: the result
// is either a complete project list or a *DecodeError, never a partial mix.
func DecodeProjects(data []byte) ([]domain.Project, error) {
	var wire []wireProject
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &DecodeError{Reason: err.Error()}
	}
	projects := make([]domain.Project, 0, len(wire))
	for i, w := range wire {
		p, err := decodeProject(i, w)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func decodeProject(index int, w wireProject) (domain.Project, error) {
	var zero domain.Project
	switch {
	case w.Name == nil:
		return zero, missingField(index, "name")
	case w.Image == nil:
		return zero, missingField(index, "image")
	case w.Status == nil:
		return zero, missingField(index, "status")
	case w.Duration == nil:
		return zero, missingField(index, "duration")
	case w.LastCommitAuthor == nil:
		return zero, missingField(index, "last_commit_author")
	case w.LastCommitMessage == nil:
		return zero, missingField(index, "last_commit_message")
	case w.UpdatedAt == nil:
		return zero, missingField(index, "updated_at")
	case w.Pipelines == nil:
		return zero, missingField(index, "pipelines")
	}
	updatedAt, err := parseDate(*w.UpdatedAt)
	if err != nil {
		return zero, &DecodeError{Reason: fmt.Sprintf("project %d: bad updated_at %q", index, *w.UpdatedAt)}
	}
	p := domain.Project{
		ID:              w.ID,
		Name:            *w.Name,
		Image:           *w.Image,
		Duration:        *w.Duration,
		CommitSHA:       w.LastCommitSHA,
		CommitAuthor:    *w.LastCommitAuthor,
		CommitMessage:   *w.LastCommitMessage,
		CommitCreatedAt: updatedAt,
		UpdatedAt:       updatedAt,
	}
	if p.ID == "" {
		p.ID = p.Name
	}
	if s := *w.Status; s != "" {
		p.Status = &s
	}
	for j, wp := range *w.Pipelines {
		if wp.CreatedAt == nil {
			return zero, missingField(index, fmt.Sprintf("pipelines[%d].created_at", j))
		}
		createdAt, err := parseDate(*wp.CreatedAt)
		if err != nil {
			return zero, &DecodeError{Reason: fmt.Sprintf("project %d: bad pipelines[%d].created_at %q", index, j, *wp.CreatedAt)}
		}
		commitCreatedAt := createdAt
		if wp.CommitCreatedAt != "" {
			commitCreatedAt, err = parseDate(wp.CommitCreatedAt)
			if err != nil {
				return zero, &DecodeError{Reason: fmt.Sprintf("project %d: bad pipelines[%d].commit_created_at %q", index, j, wp.CommitCreatedAt)}
			}
		}
		p.Pipelines = append(p.Pipelines, domain.Pipeline{
			SHA:             wp.SHA,
			Author:          wp.Author,
			Message:         wp.Message,
			CommitCreatedAt: commitCreatedAt,
			CreatedAt:       createdAt,
		})
	}
	return p, nil
}

func missingField(index int, field string) *DecodeError {
	return &DecodeError{Reason: fmt.Sprintf("project %d: missing %s", index, field)}
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
