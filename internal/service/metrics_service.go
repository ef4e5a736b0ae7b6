package service

import (
	"fmt"
	"math"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-balancer/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	balanceDuration *prometheus.HistogramVec
	balanceRuns     *prometheus.CounterVec
	objective       *prometheus.GaugeVec
	unplaced        prometheus.Counter
	overflow        prometheus.Counter
	exportJobs      *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	balanceRunCount      uint64
	balanceFailureCount  uint64
	balanceDurationTotal uint64
	lastObjectiveBits    uint64
	unplacedCount        uint64
	overflowCount        uint64
	exportFinishedCount  uint64
	exportFailedCount    uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	balanceDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "balance_run_duration_seconds",
		Help:    "Duration of full engine runs",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"policy"})

	balanceRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "balance_runs_total",
		Help: "Engine runs by outcome",
	}, []string{"outcome"})

	objective := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "balance_objective",
		Help: "Objective of the most recent run, before and after the tabu search",
	}, []string{"stage"})

	unplaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "balance_unplaced_meetings_total",
		Help: "Meetings the initial allocation could not place",
	})

	overflow := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "balance_overflow_meetings_total",
		Help: "Meetings the calendar expansion could not place",
	})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_jobs_total",
		Help: "Schedule export jobs by format and final status",
	}, []string{"format", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		balanceDuration, balanceRuns, objective, unplaced, overflow, exportJobs, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		balanceDuration: balanceDuration,
		balanceRuns:     balanceRuns,
		objective:       objective,
		unplaced:        unplaced,
		overflow:        overflow,
		exportJobs:      exportJobs,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// BalanceRun describes one finished engine run.
type BalanceRun struct {
	Policy    string
	Duration  time.Duration
	Initial   float64
	Objective float64
	Unplaced  int
	Overflow  int
}

// ObserveBalanceRun records a successful engine run.
func (m *MetricsService) ObserveBalanceRun(run BalanceRun) {
	if m == nil {
		return
	}
	m.balanceDuration.WithLabelValues(run.Policy).Observe(run.Duration.Seconds())
	m.balanceRuns.WithLabelValues("ok").Inc()
	m.objective.WithLabelValues("initial").Set(run.Initial)
	m.objective.WithLabelValues("final").Set(run.Objective)
	if run.Unplaced > 0 {
		m.unplaced.Add(float64(run.Unplaced))
		atomic.AddUint64(&m.unplacedCount, uint64(run.Unplaced))
	}
	if run.Overflow > 0 {
		m.overflow.Add(float64(run.Overflow))
		atomic.AddUint64(&m.overflowCount, uint64(run.Overflow))
	}
	atomic.AddUint64(&m.balanceRunCount, 1)
	atomic.AddUint64(&m.balanceDurationTotal, uint64(run.Duration.Nanoseconds()))
	atomic.StoreUint64(&m.lastObjectiveBits, math.Float64bits(run.Objective))
}

// ObserveBalanceFailure counts an engine run rejected or aborted with an error.
func (m *MetricsService) ObserveBalanceFailure() {
	if m == nil {
		return
	}
	m.balanceRuns.WithLabelValues("error").Inc()
	atomic.AddUint64(&m.balanceFailureCount, 1)
}

// ObserveExportJob counts an export job reaching a final status.
func (m *MetricsService) ObserveExportJob(format models.ExportFormat, status models.ExportStatus) {
	if m == nil {
		return
	}
	m.exportJobs.WithLabelValues(string(format), string(status)).Inc()
	switch status {
	case models.ExportStatusFinished:
		atomic.AddUint64(&m.exportFinishedCount, 1)
	case models.ExportStatusFailed:
		atomic.AddUint64(&m.exportFailedCount, 1)
	}
}

// Snapshot returns aggregated metrics suitable for the summary endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	runs := atomic.LoadUint64(&m.balanceRunCount)
	runDuration := atomic.LoadUint64(&m.balanceDurationTotal)

	var cacheRatio float64
	if total := hits + misses; total > 0 {
		cacheRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgRunMs float64
	if runs > 0 {
		avgRunMs = float64(runDuration) / float64(runs) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		BalanceRuns:              runs,
		BalanceFailures:          atomic.LoadUint64(&m.balanceFailureCount),
		AverageBalanceDurationMs: avgRunMs,
		LastObjective:            math.Float64frombits(atomic.LoadUint64(&m.lastObjectiveBits)),
		UnplacedMeetings:         atomic.LoadUint64(&m.unplacedCount),
		OverflowMeetings:         atomic.LoadUint64(&m.overflowCount),
		ExportsFinished:          atomic.LoadUint64(&m.exportFinishedCount),
		ExportsFailed:            atomic.LoadUint64(&m.exportFailedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
