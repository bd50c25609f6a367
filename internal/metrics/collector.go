package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/gray-logic-diagnostics/internal/diagnostics"
)

const (
	namespace = "graydiag"
	subsystem = "diagnostics"
)

// PendingCounter reports how many requests hold a registry slot.
// *diagnostics.Registry satisfies it.
type PendingCounter interface {
	Len() int
}

// Collector records dispatcher lifecycle events.
type Collector struct {
	registry *prometheus.Registry

	issued    *prometheus.CounterVec
	completed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ diagnostics.Observer = (*Collector)(nil)

// New creates a Collector with Go runtime and process collectors registered.
// pending may be nil; see TrackPending.
func New(pending PendingCounter) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		issued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "issued_total",
				Help:      "Diagnostic requests accepted by the dispatcher",
			},
			[]string{"command", "path"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "completed_total",
				Help:      "Diagnostic requests that reached a terminal outcome",
			},
			[]string{"command", "path", "status", "step"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "duration_seconds",
				Help:      "Time from issue to terminal outcome",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"command", "path"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.issued, c.completed, c.duration,
	)

	if pending != nil {
		c.TrackPending(pending)
	}

	return c
}

// TrackPending exports pending.Len() as the pending gauge. Call it at most
// once; New calls it when given a non-nil counter.
func (c *Collector) TrackPending(pending PendingCounter) {
	c.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pending",
			Help:      "Requests currently holding a registry slot",
		},
		func() float64 { return float64(pending.Len()) },
	))
}

// Issued counts an accepted request.
func (c *Collector) Issued(info diagnostics.RequestInfo) {
	c.issued.WithLabelValues(info.Command, string(info.Path)).Inc()
}

// Completed counts a terminal outcome and observes its duration.
// The step label is empty unless the outcome is a transport failure.
func (c *Collector) Completed(res diagnostics.Result) {
	status := "completed"
	if !res.OK() {
		status = "failed"
	}
	step, _ := diagnostics.FailedStep(res.Err)

	c.completed.WithLabelValues(res.Command, string(res.Path), status, string(step)).Inc()
	c.duration.WithLabelValues(res.Command, string(res.Path)).Observe(res.Duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry, mainly for tests.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}
