package telemetry

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task and cache outcomes shared across packages.
const (
	OutcomeOK            = "ok"
	OutcomeError         = "error"
	OutcomeDropped       = "dropped"
	OutcomePanic         = "panic"
	OutcomeParseFallback = "parse_fallback"
	OutcomeUnavailable   = "unavailable"
	OutcomeHit           = "hit"
	OutcomeMiss          = "miss"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentigate_http_requests_total",
		Help: "Total number of HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentigate_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sentigate_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	inferenceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentigate_inference_requests_total",
		Help: "Inference calls by kind and outcome.",
	}, []string{"kind", "outcome"})

	inferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sentigate_inference_duration_seconds",
		Help:    "Inference call duration in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"kind"})

	inferenceTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentigate_inference_tokens_total",
		Help: "Total tokens consumed by inference calls, by kind.",
	}, []string{"kind"})

	backgroundTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentigate_background_tasks_total",
		Help: "Background task executions by task name and outcome.",
	}, []string{"task", "outcome"})

	cacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentigate_cache_requests_total",
		Help: "Analysis cache lookups by outcome.",
	}, []string{"outcome"})

	panicsRecoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentigate_panics_recovered_total",
		Help: "Panics recovered by the HTTP middleware and the worker pool.",
	})
)

// Emitter records request metrics. All methods are fire-and-forget, safe for
// concurrent use, and tolerate a nil receiver so optional wiring stays simple.
type Emitter struct {
	startedAt       time.Time
	totalRequests   atomic.Int64
	totalDurationMS atomic.Int64

	mu         sync.Mutex
	byEndpoint map[string]int64
}

func NewEmitter() *Emitter {
	return &Emitter{
		startedAt:  time.Now(),
		byEndpoint: make(map[string]int64),
	}
}

func (e *Emitter) ObserveHTTP(method, path string, status int, duration time.Duration) {
	if e == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	e.totalRequests.Add(1)
	e.totalDurationMS.Add(duration.Milliseconds())
	e.mu.Lock()
	e.byEndpoint[path]++
	e.mu.Unlock()
}

func (e *Emitter) RequestStarted() {
	if e == nil {
		return
	}
	httpRequestsInFlight.Inc()
}

func (e *Emitter) RequestDone() {
	if e == nil {
		return
	}
	httpRequestsInFlight.Dec()
}

func (e *Emitter) ObserveInference(kind, outcome string, duration time.Duration, tokens int) {
	if e == nil {
		return
	}
	inferenceRequestsTotal.WithLabelValues(kind, outcome).Inc()
	inferenceDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if tokens > 0 {
		inferenceTokensTotal.WithLabelValues(kind).Add(float64(tokens))
	}
}

func (e *Emitter) TaskOutcome(task, outcome string) {
	if e == nil {
		return
	}
	backgroundTasksTotal.WithLabelValues(task, outcome).Inc()
	if outcome == OutcomePanic {
		panicsRecoveredTotal.Inc()
	}
}

func (e *Emitter) CacheResult(outcome string) {
	if e == nil {
		return
	}
	cacheRequestsTotal.WithLabelValues(outcome).Inc()
}

func (e *Emitter) PanicRecovered() {
	if e == nil {
		return
	}
	panicsRecoveredTotal.Inc()
}

// StatsSnapshot is the in-process view served by the stats endpoint.
type StatsSnapshot struct {
	TotalRequests         int64            `json:"total_requests"`
	RequestsByEndpoint    map[string]int64 `json:"requests_by_endpoint"`
	AverageProcessingTime float64          `json:"average_processing_time"`
	Uptime                float64          `json:"uptime"`
}

func (e *Emitter) Snapshot() StatsSnapshot {
	if e == nil {
		return StatsSnapshot{RequestsByEndpoint: map[string]int64{}}
	}

	total := e.totalRequests.Load()
	snap := StatsSnapshot{
		TotalRequests:      total,
		RequestsByEndpoint: make(map[string]int64),
		Uptime:             time.Since(e.startedAt).Seconds(),
	}
	if total > 0 {
		snap.AverageProcessingTime = float64(e.totalDurationMS.Load()) / float64(total) / 1000
	}

	e.mu.Lock()
	for endpoint, count := range e.byEndpoint {
		snap.RequestsByEndpoint[endpoint] = count
	}
	e.mu.Unlock()

	return snap
}
