package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	reindexTotal    *prometheus.CounterVec
	reindexDuration *prometheus.HistogramVec
	reindexInFlight prometheus.Gauge
	indexedBullets  *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	reindexTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rt",
			Subsystem: "worker",
			Name:      "reindex_total",
			Help:      "Total index rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	reindexDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "worker",
			Name:      "reindex_duration_seconds",
			Help:      "Index rebuild duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	reindexInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rt",
			Subsystem: "worker",
			Name:      "reindex_in_flight",
			Help:      "Number of in-flight index rebuilds.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	indexedBullets := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "worker",
			Name:      "indexed_bullets",
			Help:      "Distribution of bullets per published generation.",
			Buckets:   []float64{10, 25, 50, 100, 200, 400, 800},
		},
		[]string{"service"},
	)

	registry.MustRegister(reindexTotal, reindexDuration, reindexInFlight, indexedBullets)

	return &WorkerMetrics{
		registry:        registry,
		reindexTotal:    reindexTotal,
		reindexDuration: reindexDuration,
		reindexInFlight: reindexInFlight,
		indexedBullets:  indexedBullets,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartReindex() {
	m.reindexInFlight.Inc()
}

func (m *WorkerMetrics) FinishReindex(service string, duration time.Duration, err error) {
	m.reindexInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.reindexTotal.WithLabelValues(service, status).Inc()
	m.reindexDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveIndexedBullets(service string, count int) {
	if count <= 0 {
		return
	}
	m.indexedBullets.WithLabelValues(service).Observe(float64(count))
}
