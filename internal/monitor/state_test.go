package monitor

import (
	"testing"
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

var testNow = time.Date(2025, time.November, 5, 12, 0, 0, 0, time.UTC)

func TestReduceSnapshotReplaced(t *testing.T) {
	s := State{Err: "decode projects: boom", MeasureSeq: 3}
	projects := []domain.Project{{ID: "p1", Name: "frontend"}}

	next := Reduce(s, SnapshotReplaced{Projects: projects, At: testNow})
	if len(next.Projects) != 1 || next.Projects[0].ID != "p1" {
		t.Fatalf("projects not replaced: %+v", next.Projects)
	}
	if next.Err != "" {
		t.Fatalf("error not cleared: %q", next.Err)
	}
	if !next.LastUpdate.Equal(testNow) {
		t.Fatalf("last update not set: %v", next.LastUpdate)
	}
	if next.MeasureSeq != 4 {
		t.Fatalf("measure seq not advanced, got %d", next.MeasureSeq)
	}
}

func TestReduceSnapshotRejectedKeepsProjects(t *testing.T) {
	projects := []domain.Project{{ID: "p1"}}
	s := State{Projects: projects, LastUpdate: testNow, MeasureSeq: 2}

	next := Reduce(s, SnapshotRejected{Reason: "decode projects: missing name", At: testNow.Add(time.Second)})
	if len(next.Projects) != 1 || next.Projects[0].ID != "p1" {
		t.Fatalf("rejection must keep last-known-good projects: %+v", next.Projects)
	}
	if next.Err == "" {
		t.Fatalf("rejection must surface an error")
	}
	if !next.LastUpdate.Equal(testNow) {
		t.Fatalf("rejection must not touch last update: %v", next.LastUpdate)
	}
	if next.MeasureSeq != 2 {
		t.Fatalf("rejection must not advance measure seq, got %d", next.MeasureSeq)
	}
}

func TestReduceHeightsMeasured(t *testing.T) {
	s := State{MeasureSeq: 7}
	metrics := []domain.ElementMetric{{ID: "p1", OffsetHeight: 120}}

	next := Reduce(s, HeightsMeasured{Seq: 7, Metrics: metrics})
	if len(next.Metrics) != 1 || next.Metrics[0].OffsetHeight != 120 {
		t.Fatalf("metrics not applied: %+v", next.Metrics)
	}
}

func TestReduceStaleHeightsDiscarded(t *testing.T) {
	existing := []domain.ElementMetric{{ID: "p1", OffsetHeight: 90}}
	s := State{MeasureSeq: 7, Metrics: existing}

	next := Reduce(s, HeightsMeasured{Seq: 6, Metrics: []domain.ElementMetric{{ID: "p1", OffsetHeight: 400}}})
	if len(next.Metrics) != 1 || next.Metrics[0].OffsetHeight != 90 {
		t.Fatalf("stale measurement must be discarded: %+v", next.Metrics)
	}
}

func TestReduceTick(t *testing.T) {
	s := State{Now: testNow}
	next := Reduce(s, Tick{Now: testNow.Add(time.Second)})
	if !next.Now.Equal(testNow.Add(time.Second)) {
		t.Fatalf("clock not advanced: %v", next.Now)
	}
}

func TestReducePurity(t *testing.T) {
	original := State{
		Now:        testNow,
		Projects:   []domain.Project{{ID: "p1"}},
		LastUpdate: testNow,
		Metrics:    []domain.ElementMetric{{ID: "p1", OffsetHeight: 50}},
		MeasureSeq: 1,
	}
	snapshot := original

	Reduce(original, SnapshotReplaced{Projects: []domain.Project{{ID: "p2"}}, At: testNow.Add(time.Minute)})
	Reduce(original, HeightsMeasured{Seq: 1, Metrics: []domain.ElementMetric{{ID: "p2", OffsetHeight: 10}}})

	if original.Projects[0].ID != snapshot.Projects[0].ID ||
		original.Metrics[0].OffsetHeight != snapshot.Metrics[0].OffsetHeight ||
		original.MeasureSeq != snapshot.MeasureSeq {
		t.Fatalf("reducer mutated its input: %+v", original)
	}
}
