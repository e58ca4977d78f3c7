package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var layoutBuckets = []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025}

type loopMetrics struct {
	payloads       *prometheus.CounterVec
	measurements   *prometheus.CounterVec
	frames         prometheus.Counter
	layoutDuration prometheus.Histogram
}

func newLoopMetrics() *loopMetrics {
	m := &loopMetrics{
		payloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cimon",
			Subsystem: "board",
			Name:      "feed_payloads_total",
			Help:      "Count of received feed payloads by outcome",
		}, []string{"outcome"}),
		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cimon",
			Subsystem: "board",
			Name:      "measurements_total",
			Help:      "Count of height measurement responses by outcome",
		}, []string{"outcome"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cimon",
			Subsystem: "board",
			Name:      "frames_total",
			Help:      "Count of published render frames",
		}),
		layoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cimon",
			Subsystem: "board",
			Name:      "layout_duration_seconds",
			Help:      "Time spent deriving a frame from state",
			Buckets:   layoutBuckets,
		}),
	}
	m.payloads = registerCounterVec(m.payloads)
	m.measurements = registerCounterVec(m.measurements)
	if err := prometheus.Register(m.frames); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.frames = already.ExistingCollector.(prometheus.Counter)
		}
	}
	if err := prometheus.Register(m.layoutDuration); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			m.layoutDuration = already.ExistingCollector.(prometheus.Histogram)
		}
	}
	return m
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return vec
}

func (m *loopMetrics) observeLayout(start time.Time) {
	m.layoutDuration.Observe(time.Since(start).Seconds())
}
