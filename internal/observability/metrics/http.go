package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	runsTotal           *prometheus.CounterVec
	runScore            *prometheus.HistogramVec
	runIterations       *prometheus.HistogramVec
	runDuration         *prometheus.HistogramVec
	rewriteFallbacks    *prometheus.CounterVec
	retrievalCandidates *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rt",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rt",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rt",
			Subsystem: "tailor",
			Name:      "runs_total",
			Help:      "Total completed tailoring runs by outcome.",
		},
		[]string{"service", "outcome"},
	)
	runScore := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "tailor",
			Name:      "run_score",
			Help:      "Distribution of final scores per run.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"service"},
	)
	runIterations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "tailor",
			Name:      "run_iterations",
			Help:      "Distribution of loop iterations per run.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "tailor",
			Name:      "run_duration_seconds",
			Help:      "Tailoring run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	rewriteFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rt",
			Subsystem: "tailor",
			Name:      "rewrite_fallbacks_total",
			Help:      "Total rewrites reverted by the safety gate.",
		},
		[]string{"service"},
	)
	retrievalCandidates := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rt",
			Subsystem: "tailor",
			Name:      "retrieval_candidates",
			Help:      "Distribution of merged candidates per iteration.",
			Buckets:   []float64{0, 5, 10, 15, 20, 30, 50},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		runsTotal,
		runScore,
		runIterations,
		runDuration,
		rewriteFallbacks,
		retrievalCandidates,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		runsTotal:           runsTotal,
		runScore:            runScore,
		runIterations:       runIterations,
		runDuration:         runDuration,
		rewriteFallbacks:    rewriteFallbacks,
		retrievalCandidates: retrievalCandidates,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := normalizePath(r.URL.Path)
		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-resource segments so metric label
// cardinality stays bounded.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/v1/bullets/") {
		return "/v1/bullets/:id"
	}
	return path
}

func (m *HTTPServerMetrics) RecordRun(service, outcome string, score, iterations, fallbacks int, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.runsTotal.WithLabelValues(service, outcome).Inc()
	m.runScore.WithLabelValues(service).Observe(float64(score))
	if iterations > 0 {
		m.runIterations.WithLabelValues(service).Observe(float64(iterations))
	}
	m.runDuration.WithLabelValues(service).Observe(duration.Seconds())
	if fallbacks > 0 {
		m.rewriteFallbacks.WithLabelValues(service).Add(float64(fallbacks))
	}
}

func (m *HTTPServerMetrics) RecordRunError(service string) {
	m.runsTotal.WithLabelValues(service, "error").Inc()
}

func (m *HTTPServerMetrics) RecordCandidates(service string, count int) {
	m.retrievalCandidates.WithLabelValues(service).Observe(float64(count))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
