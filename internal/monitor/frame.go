package monitor

import (
	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
	"github.com/chenhm/gitlab-ci-monitor/internal/layout"
	"github.com/chenhm/gitlab-ci-monitor/internal/view"
)

// Frame is one render pass published to every dashboard subscriber. Seq and
// Selector tell the page what to measure and how to tag the response.
type Frame struct {
	Status   string                 `json:"status"`
	Error    bool                   `json:"error"`
	Seq      uint64                 `json:"seq"`
	Selector string                 `json:"selector"`
	Columns  [][]domain.ViewProject `json:"columns"`
}

// BuildFrame derives the frame for a state: view models from the project
// snapshot and clock, then masonry columns from the freshly rebuilt height
// lookup. Pure, like the reducer.
func BuildFrame(s State, columns int, selector string) Frame {
	viewProjects := view.Build(s.Now, s.Projects)
	lookup := layout.Heights(s.Metrics)
	heights := make([]float64, len(viewProjects))
	for i, vp := range viewProjects {
		heights[i] = lookup(vp.ID)
	}
	frame := Frame{
		Seq:      s.MeasureSeq,
		Selector: selector,
		Columns:  layout.Columnize(columns, heights, viewProjects),
	}
	switch {
	case s.Err != "":
		frame.Status = "Error: " + s.Err
		frame.Error = true
	case s.LastUpdate.IsZero():
		frame.Status = "Connecting..."
	default:
		frame.Status = "Updated " + view.FormatDate(s.LastUpdate)
	}
	return frame
}
