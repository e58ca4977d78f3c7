package view

import (
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

// Build derives the render-ready projection for every project at the given
// instant. It is a total, pure function: no input is mutated and no error is
// possible, so it is safe to call on every clock tick.
func Build(now time.Time, projects []domain.Project) []domain.ViewProject {
	out := make([]domain.ViewProject, 0, len(projects))
	for _, p := range projects {
		vp := domain.ViewProject{
			ID:              p.ID,
			Name:            p.Name,
			Image:           p.Image,
			Status:          p.Status,
			CommitSHA:       p.CommitSHA,
			CommitAuthor:    p.CommitAuthor,
			CommitMessage:   p.CommitMessage,
			CommitCreatedAt: p.CommitCreatedAt,
			Current:         []domain.ViewPipeline{},
			Previous:        []domain.ViewPipeline{},
		}
		for _, pipe := range p.Pipelines {
			derived := buildPipeline(now, p.Duration, pipe)
			if pipe.SHA == p.CommitSHA {
				vp.Current = append(vp.Current, derived)
			} else {
				vp.Previous = append(vp.Previous, derived)
			}
		}
		out = append(out, vp)
	}
	return out
}

func buildPipeline(now time.Time, duration float64, p domain.Pipeline) domain.ViewPipeline {
	progress := now.Sub(p.CreatedAt).Seconds()
	if progress < 0 {
		progress = 0
	}
	percent := 0.0
	if duration > 0 {
		percent = progress / duration * 100
		if percent > 100 {
			percent = 100
		}
	}
	remaining := duration - progress
	if remaining < 0 {
		remaining = 0
	}
	return domain.ViewPipeline{
		ProgressSeconds:  progress,
		RemainingSeconds: remaining,
		ProgressPercent:  percent,
		Author:           p.Author,
		Message:          p.Message,
		CreatedAt:        p.CommitCreatedAt,
	}
}
