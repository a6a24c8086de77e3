package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ws"

type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	stageLatency  *prometheus.HistogramVec
	analyses      *prometheus.CounterVec
	signals       *prometheus.CounterVec
	persist       *prometheus.CounterVec
	assigneeCache *prometheus.CounterVec
}

var (
	initMu   sync.Mutex
	instance *Metrics
)

// Current returns the process-wide metrics, or nil when metrics are disabled.
// Every method on *Metrics is nil-safe.
func Current() *Metrics {
	initMu.Lock()
	defer initMu.Unlock()
	return instance
}

// Init builds the metrics on a private registry so tests and embedded
// servers never collide with the global default registerer.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if instance != nil {
		return instance
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	instance = &Metrics{
		registry: reg,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Whitespace pipeline stage latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"stage", "status"}),
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Whitespace analyses by mode/outcome.",
		}, []string{"mode", "outcome"}),
		signals: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_total",
			Help:      "Signals emitted by kind/status.",
		}, []string{"kind", "status"}),
		persist: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_total",
			Help:      "Background persistence runs by outcome.",
		}, []string{"outcome"}),
		assigneeCache: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assignee_cache_total",
			Help:      "Assignee resolution cache lookups.",
		}, []string{"result"}),
	}
	return instance
}

// reset drops the singleton; tests only.
func reset() {
	initMu.Lock()
	instance = nil
	initMu.Unlock()
}

// WriteHTTP serves the registry in the Prometheus exposition format, or 503
// when metrics are disabled.
func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	m.handler.ServeHTTP(w, r)
}

// Registry exposes the private registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func orUnknown(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": orUnknown(method, "UNKNOWN"),
		"route":  orUnknown(route, "unknown"),
		"status": orUnknown(status, "0"),
	}
	m.apiRequests.With(labels).Inc()
	m.apiLatency.With(labels).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAnalysis(mode, outcome string) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) IncSignal(kind, status string) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) IncPersist(outcome string) {
	if m == nil {
		return
	}
	m.persist.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAssigneeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.assigneeCache.WithLabelValues(result).Inc()
}
