package rules

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// engineMetrics holds Prometheus metrics for engine runs.
// A nil *engineMetrics is valid and records nothing.
type engineMetrics struct {
	runs          *prometheus.CounterVec // by status (success/failure)
	ruleOutcomes  *prometheus.CounterVec // by outcome (passed/failed/error)
	eventsEmitted prometheus.Counter
	runDuration   prometheus.Histogram
}

// newEngineMetrics creates and registers engine metrics with registerer.
// Returns nil metrics (disabled) when registerer is nil.
func newEngineMetrics(registerer prometheus.Registerer) (*engineMetrics, error) {
	if registerer == nil {
		return nil, nil
	}

	m := &engineMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factkeeper",
			Subsystem: "engine",
			Name:      "runs_total",
			Help:      "Total number of engine runs",
		}, []string{"status"}), // status: success, failure

		ruleOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factkeeper",
			Subsystem: "engine",
			Name:      "rule_evaluations_total",
			Help:      "Total number of rule evaluations by outcome",
		}, []string{"outcome"}), // outcome: passed, failed, error

		eventsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "factkeeper",
			Subsystem: "engine",
			Name:      "events_emitted_total",
			Help:      "Total number of events triggered by passing rules",
		}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "factkeeper",
			Subsystem: "engine",
			Name:      "run_duration_seconds",
			Help:      "Engine run duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}),
	}

	collectors := []prometheus.Collector{m.runs, m.ruleOutcomes, m.eventsEmitted, m.runDuration}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *engineMetrics) recordRule(outcome string) {
	if m == nil {
		return
	}
	m.ruleOutcomes.WithLabelValues(outcome).Inc()
}

func (m *engineMetrics) recordRun(status string, events int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
	m.eventsEmitted.Add(float64(events))
	m.runDuration.Observe(elapsed.Seconds())
}
