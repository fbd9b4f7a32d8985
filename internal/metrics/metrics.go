// Package metrics exports pipeline events as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/satriahrh/suara/internal/pipeline"
)

const namespace = "suara"

// Metrics records pipeline runs on its own registry
type Metrics struct {
	registry *prometheus.Registry

	stageDuration    *prometheus.HistogramVec
	pipelineDuration *prometheus.HistogramVec
	requestsTotal    *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	pipelinesActive  prometheus.Gauge
}

var _ pipeline.Observer = (*Metrics)(nil)

// New creates the collectors and registers them together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Histogram of pipeline stage duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage", "status"}, // status: success, error
		),
		pipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Histogram of total pipeline duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"kind", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_requests_total",
				Help:      "Total number of pipeline requests by kind",
			},
			[]string{"kind"},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_failures_total",
				Help:      "Total number of failed pipelines by stage and error kind",
			},
			[]string{"stage", "error_kind"},
		),
		pipelinesActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipelines_active",
				Help:      "Number of currently running pipelines",
			},
		),
	}

	m.registry.MustRegister(
		m.stageDuration,
		m.pipelineDuration,
		m.requestsTotal,
		m.failuresTotal,
		m.pipelinesActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// OnEvent implements pipeline.Observer.
func (m *Metrics) OnEvent(event pipeline.Event) {
	switch event.Type {
	case pipeline.EventRunStarted:
		m.requestsTotal.WithLabelValues(string(event.Kind)).Inc()
		m.pipelinesActive.Inc()
	case pipeline.EventStepCompleted:
		m.stageDuration.WithLabelValues(string(event.State), "success").Observe(event.Duration.Seconds())
	case pipeline.EventStepFailed:
		m.stageDuration.WithLabelValues(string(event.State), "error").Observe(event.Duration.Seconds())
	case pipeline.EventRunCompleted:
		m.pipelinesActive.Dec()
		m.pipelineDuration.WithLabelValues(string(event.Kind), "success").Observe(event.Duration.Seconds())
	case pipeline.EventRunFailed:
		m.pipelinesActive.Dec()
		m.pipelineDuration.WithLabelValues(string(event.Kind), "error").Observe(event.Duration.Seconds())
		m.failuresTotal.WithLabelValues(string(event.State), string(event.ErrorKind)).Inc()
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
