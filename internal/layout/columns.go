// Package layout implements the masonry column balancing used by the board.
package layout

import "github.com/chenhm/gitlab-ci-monitor/internal/domain"

type column[T any] struct {
	height float64
	items  []T
}

// Columnize distributes items into columnCount ordered columns, streaming each
// item once into the column chosen by a greedy fold over the columns in index
// order: a column wins outright when adding the item there would stay within
// half an item height of the current candidate's top, otherwise only a column
// that is both shorter and holds fewer items displaces the candidate. The rule
// is asymmetric on purpose; changing it changes the visual output.
//
// heights[i] belongs to items[i]. When the slices differ in length the excess
// of the longer one is never placed. Zero items yields columnCount empty
// columns. The result is deterministic for a given input sequence.
func Columnize[T any](columnCount int, heights []float64, items []T) [][]T {
	if columnCount < 1 {
		columnCount = 1
	}
	cols := make([]column[T], columnCount)
	n := len(items)
	if len(heights) < n {
		n = len(heights)
	}
	for i := 0; i < n; i++ {
		h := heights[i]
		best := 0
		for j := range cols {
			switch {
			case cols[j].height-cols[best].height+h < h/2:
				best = j
			case cols[j].height < cols[best].height && len(cols[j].items) < len(cols[best].items):
				best = j
			}
		}
		cols[best].items = append(cols[best].items, items[i])
		cols[best].height += h
	}
	out := make([][]T, columnCount)
	for i := range cols {
		if cols[i].items == nil {
			out[i] = []T{}
			continue
		}
		out[i] = cols[i].items
	}
	return out
}

// Heights indexes a measurement batch by element id, last write wins. The
// returned lookup reports 1 for ids that were never measured or measured at a
// non-positive height, so layout never divides by a degenerate zero.
func Heights(metrics []domain.ElementMetric) func(id string) float64 {
	byID := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		byID[m.ID] = m.OffsetHeight
	}
	return func(id string) float64 {
		if h, ok := byID[id]; ok && h > 0 {
			return h
		}
		return 1
	}
}
