package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chenhm/gitlab-ci-monitor/internal/domain"
)

// Publisher receives every published render frame.
type Publisher interface {
	Publish(Frame)
}

// Recorder persists accepted snapshots to the history store.
type Recorder interface {
	RecordSnapshot(ctx context.Context, projects []domain.Project) error
}

// SnapshotCache keeps the raw bytes of the last accepted payload.
type SnapshotCache interface {
	Save(ctx context.Context, raw []byte) error
}

// Loop owns the board state. All events funnel through a single goroutine, so
// the reducer runs one event at a time and no lock guards the state itself.
type Loop struct {
	columns  int
	selector string
	tick     time.Duration

	events    chan Event
	publisher Publisher
	recorder  Recorder
	cache     SnapshotCache
	metrics   *loopMetrics
	log       *slog.Logger

	mu    sync.RWMutex
	last  Frame
	state State
}

// NewLoop wires a loop. Recorder and cache may be nil when history or the
// snapshot cache are disabled.
func NewLoop(columns int, selector string, tick time.Duration, publisher Publisher, recorder Recorder, cache SnapshotCache, log *slog.Logger) *Loop {
	if columns < 1 {
		columns = 2
	}
	if tick <= 0 {
		tick = time.Second
	}
	return &Loop{
		columns:   columns,
		selector:  selector,
		tick:      tick,
		events:    make(chan Event, 16),
		publisher: publisher,
		recorder:  recorder,
		cache:     cache,
		metrics:   newLoopMetrics(),
		log:       log,
	}
}

// Run consumes ticks and dispatched events until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	l.step(ctx, Tick{Now: time.Now()})
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.step(ctx, Tick{Now: now})
		case e := <-l.events:
			l.step(ctx, e)
		}
	}
}

// Dispatch queues an event for the loop goroutine.
func (l *Loop) Dispatch(e Event) {
	l.events <- e
}

// SnapshotReplaced implements feed.Sink.
func (l *Loop) SnapshotReplaced(projects []domain.Project, raw []byte) {
	l.Dispatch(SnapshotReplaced{Projects: projects, Raw: raw, At: time.Now()})
}

// SnapshotRejected implements feed.Sink.
func (l *Loop) SnapshotRejected(reason string) {
	l.Dispatch(SnapshotRejected{Reason: reason, At: time.Now()})
}

// CurrentFrame returns the most recently published frame, for first paint of
// a newly connected dashboard.
func (l *Loop) CurrentFrame() Frame {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

func (l *Loop) step(ctx context.Context, e Event) {
	l.sideEffects(ctx, e)
	l.state = Reduce(l.state, e)

	start := time.Now()
	frame := BuildFrame(l.state, l.columns, l.selector)
	l.metrics.observeLayout(start)

	l.mu.Lock()
	l.last = frame
	l.mu.Unlock()

	if l.publisher != nil {
		l.publisher.Publish(frame)
	}
	l.metrics.frames.Inc()
}

func (l *Loop) sideEffects(ctx context.Context, e Event) {
	switch ev := e.(type) {
	case SnapshotReplaced:
		l.metrics.payloads.WithLabelValues("accepted").Inc()
		if l.cache != nil && len(ev.Raw) > 0 {
			if err := l.cache.Save(ctx, ev.Raw); err != nil {
				l.log.Warn("snapshot cache save failed", "error", err)
			}
		}
		if l.recorder != nil {
			if err := l.recorder.RecordSnapshot(ctx, ev.Projects); err != nil {
				l.log.Warn("history record failed", "error", err)
			}
		}
	case SnapshotRejected:
		l.metrics.payloads.WithLabelValues("rejected").Inc()
	case HeightsMeasured:
		if ev.Seq != l.state.MeasureSeq {
			l.metrics.measurements.WithLabelValues("stale").Inc()
			return
		}
		l.metrics.measurements.WithLabelValues("applied").Inc()
	}
}
