// Package monitor holds the board state machine: a single-threaded event loop
// dispatching discrete events through a pure reducer.
package monitor

import (
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

// Event is one discrete input to the board state machine.
type Event interface {
	isEvent()
}

// Tick advances the clock; every tick produces a fresh render pass.
type Tick struct {
	Now time.Time
}

// SnapshotReplaced swaps in a new project list wholesale.
type SnapshotReplaced struct {
	Projects []domain.Project
	Raw      []byte
	At       time.Time
}

// SnapshotRejected records a decode failure; the project list is untouched.
type SnapshotRejected struct {
	Reason string
	At     time.Time
}

// HeightsMeasured delivers a measurement response from the page. Seq echoes
// the measure sequence of the frame the page measured; responses for a
// superseded frame are discarded.
type HeightsMeasured struct {
	Seq     uint64
	Metrics []domain.ElementMetric
}

func (Tick) isEvent()             {}
func (SnapshotReplaced) isEvent() {}
func (SnapshotRejected) isEvent() {}
func (HeightsMeasured) isEvent()  {}

// State is the complete input to a render pass. It is treated as immutable:
// Reduce returns a new value and never mutates slices or maps in place.
type State struct {
	Now        time.Time
	Projects   []domain.Project
	LastUpdate time.Time
	Err        string
	Metrics    []domain.ElementMetric
	MeasureSeq uint64
}

// Reduce applies one event to the state. It is pure: same state and event in,
// same state out, no side effects.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case Tick:
		s.Now = ev.Now
	case SnapshotReplaced:
		s.Projects = ev.Projects
		s.LastUpdate = ev.At
		s.Err = ""
		s.MeasureSeq++
	case SnapshotRejected:
		s.Err = ev.Reason
	case HeightsMeasured:
		if ev.Seq != s.MeasureSeq {
			return s
		}
		s.Metrics = ev.Metrics
	}
	return s
}
