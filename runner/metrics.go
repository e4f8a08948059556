package runner

import (
	"fmt"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-example outcomes.
type Metrics struct {
	examples  metrics.CounterVec
	durations metrics.GaugeVec
	lastRun   metrics.GaugeVec
}

// NewMetrics registers the runner metrics with reg.
func NewMetrics(reg metrics.Registry) (*Metrics, error) {
	examples, err := reg.NewCounterVec(prometheus.CounterOpts{
		Name: "examples_total",
		Help: "Examples executed, by suite and terminal status.",
	}, []string{"suite", "status"})
	if err != nil {
		return nil, fmt.Errorf("creating examples counter: %w", err)
	}

	durations, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "example_duration_seconds",
		Help: "Duration of the most recent execution of each example.",
	}, []string{"suite", "example"})
	if err != nil {
		return nil, fmt.Errorf("creating duration gauge: %w", err)
	}

	lastRun, err := reg.NewGaugeVec(prometheus.GaugeOpts{
		Name: "last_run_timestamp_seconds",
		Help: "Unix time at which each suite last finished running.",
	}, []string{"suite"})
	if err != nil {
		return nil, fmt.Errorf("creating last run gauge: %w", err)
	}

	return &Metrics{examples: examples, durations: durations, lastRun: lastRun}, nil
}

func (m *Metrics) observe(suite string, r example.Result) {
	if m == nil {
		return
	}
	m.examples.With(prometheus.Labels{"suite": suite, "status": r.Status.String()}).Inc()
	m.durations.With(prometheus.Labels{"suite": suite, "example": r.Name}).Set(r.Duration.Seconds())
}

func (m *Metrics) finished(suite string, unix float64) {
	if m == nil {
		return
	}
	m.lastRun.With(prometheus.Labels{"suite": suite}).Set(unix)
}
