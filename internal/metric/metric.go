// Package metric holds the prometheus collectors for the tag store and the
// detection engine.
//
// A nil *Metrics is valid and records nothing, so components can take one as
// an optional dependency.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "placebreak"

// Operation status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics contains the collectors.
type Metrics struct {
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec
	ExploitChecks   *prometheus.CounterVec
	TagsRelocated   prometheus.Counter
}

// New creates the collectors without registering them.
func New() *Metrics {
	return &Metrics{
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of tag store operations",
			},
			[]string{"operation", "status"},
		),

		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Tag store operation duration in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),

		ExploitChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "exploit_checks_total",
				Help:      "Place-and-break exploit checks by verdict",
			},
			[]string{"result"},
		),

		TagsRelocated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "tags_relocated_total",
				Help:      "Total number of tags moved to a new location",
			},
		),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.StoreOperations,
		m.StoreDuration,
		m.ExploitChecks,
		m.TagsRelocated,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.StoreOperations.WithLabelValues(operation, status).Inc()
	m.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveExploitCheck records an exploit verdict.
func (m *Metrics) ObserveExploitCheck(exploit bool) {
	if m == nil {
		return
	}
	result := "clean"
	if exploit {
		result = "exploit"
	}
	m.ExploitChecks.WithLabelValues(result).Inc()
}

// AddRelocated counts relocated tags.
func (m *Metrics) AddRelocated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.TagsRelocated.Add(float64(n))
}
