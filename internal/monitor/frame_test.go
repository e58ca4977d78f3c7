package monitor

import (
	"testing"
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

func frameState() State {
	return State{
		Now: testNow,
		Projects: []domain.Project{
			{ID: "p1", Name: "frontend", CommitSHA: "abc"},
			{ID: "p2", Name: "backend", CommitSHA: "def"},
			{ID: "p3", Name: "worker", CommitSHA: "ghi"},
		},
		LastUpdate: time.Date(2025, time.November, 5, 11, 59, 2, 0, time.UTC),
		MeasureSeq: 5,
	}
}

func TestBuildFrameStatus(t *testing.T) {
	frame := BuildFrame(frameState(), 2, ".card")
	if frame.Status != "Updated 11:59:02" {
		t.Fatalf("unexpected status %q", frame.Status)
	}
	if frame.Error {
		t.Fatalf("no error expected")
	}
	if frame.Seq != 5 {
		t.Fatalf("frame must carry the measure seq, got %d", frame.Seq)
	}
	if frame.Selector != ".card" {
		t.Fatalf("frame must carry the selector, got %q", frame.Selector)
	}
}

func TestBuildFrameErrorStatus(t *testing.T) {
	s := frameState()
	s.Err = "decode projects: missing duration"
	frame := BuildFrame(s, 2, ".card")
	if frame.Status != "Error: decode projects: missing duration" {
		t.Fatalf("unexpected status %q", frame.Status)
	}
	if !frame.Error {
		t.Fatalf("error flag expected")
	}
	// The board still renders the last-known-good projects.
	if placed := len(frame.Columns[0]) + len(frame.Columns[1]); placed != 3 {
		t.Fatalf("expected 3 placed projects, got %d", placed)
	}
}

func TestBuildFrameConnecting(t *testing.T) {
	frame := BuildFrame(State{Now: testNow}, 2, ".card")
	if frame.Status != "Connecting..." {
		t.Fatalf("unexpected status %q", frame.Status)
	}
}

func TestBuildFrameUsesMeasuredHeights(t *testing.T) {
	s := frameState()
	// p1 is tall; p2 and p3 should share the other column.
	s.Metrics = []domain.ElementMetric{
		{ID: "p1", OffsetHeight: 3},
		{ID: "p2", OffsetHeight: 1},
		{ID: "p3", OffsetHeight: 1},
	}
	frame := BuildFrame(s, 2, ".card")
	if len(frame.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(frame.Columns))
	}
	if len(frame.Columns[0]) != 1 || frame.Columns[0][0].ID != "p1" {
		t.Fatalf("expected p1 alone in column 0, got %+v", frame.Columns[0])
	}
	if len(frame.Columns[1]) != 2 {
		t.Fatalf("expected p2 and p3 in column 1, got %+v", frame.Columns[1])
	}
}

func TestBuildFrameUnmeasuredDefaults(t *testing.T) {
	s := frameState()
	frame := BuildFrame(s, 2, ".card")
	placed := 0
	for _, col := range frame.Columns {
		placed += len(col)
	}
	if placed != 3 {
		t.Fatalf("unmeasured cards must still be placed, got %d", placed)
	}
}
