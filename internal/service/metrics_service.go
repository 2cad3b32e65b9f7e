package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes recorded by ObserveGeneration.
const (
	OutcomeFound      = "found"
	OutcomeInfeasible = "infeasible"
	OutcomeTruncated  = "truncated"
	OutcomeTimeout    = "timeout"
	OutcomeCached     = "cached"
)

// MetricsService owns a private Prometheus registry for HTTP, cache and search instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	genDuration     *prometheus.HistogramVec
	genTotal        *prometheus.CounterVec
	genResults      prometheus.Histogram
	genLeaves       prometheus.Histogram

	cacheHitCount  uint64
	cacheMissCount uint64
	generations    [len(generationOutcomes)]uint64
}

var generationOutcomes = [...]string{OutcomeFound, OutcomeInfeasible, OutcomeTruncated, OutcomeTimeout, OutcomeCached}

// GenerationCounts tallies timetable searches per outcome.
type GenerationCounts struct {
	Found      uint64 `json:"found"`
	Infeasible uint64 `json:"infeasible"`
	Truncated  uint64 `json:"truncated"`
	Timeout    uint64 `json:"timeout"`
	Cached     uint64 `json:"cached"`
	Total      uint64 `json:"total"`
}

// MetricsSnapshot is a small JSON view of the counters.
type MetricsSnapshot struct {
	CacheHits     uint64           `json:"cacheHits"`
	CacheMisses   uint64           `json:"cacheMisses"`
	CacheHitRatio float64          `json:"cacheHitRatio"`
	Generations   GenerationCounts `json:"generations"`
	Goroutines    int              `json:"goroutines"`
	GeneratedAt   time.Time        `json:"generatedAt"`
}

// NewMetricsService registers the collectors.
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
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
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

	genDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of timetable searches",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	genTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_total",
		Help: "Timetable generation requests by outcome",
	}, []string{"outcome"})

	genResults := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_results",
		Help:    "Number of timetables returned per generation",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	genLeaves := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_leaves",
		Help:    "Per-course choices examined per generation",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		genDuration, genTotal, genResults, genLeaves, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		genDuration:     genDuration,
		genTotal:        genTotal,
		genResults:      genResults,
		genLeaves:       genLeaves,
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

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveGeneration records one timetable search.
func (m *MetricsService) ObserveGeneration(outcome string, duration time.Duration, results, leaves int) {
	if m == nil {
		return
	}
	m.genDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.genTotal.WithLabelValues(outcome).Inc()
	m.genResults.Observe(float64(results))
	m.genLeaves.Observe(float64(leaves))
	for i, known := range generationOutcomes {
		if known == outcome {
			atomic.AddUint64(&m.generations[i], 1)
			break
		}
	}
}

// Snapshot returns aggregated cache and generation counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return MetricsSnapshot{
		CacheHits:     hits,
		CacheMisses:   misses,
		CacheHitRatio: ratio,
		Generations:   m.generationCounts(),
		Goroutines:    runtime.NumGoroutine(),
		GeneratedAt:   time.Now().UTC(),
	}
}

func (m *MetricsService) generationCounts() GenerationCounts {
	load := func(i int) uint64 { return atomic.LoadUint64(&m.generations[i]) }
	counts := GenerationCounts{
		Found:      load(0),
		Infeasible: load(1),
		Truncated:  load(2),
		Timeout:    load(3),
		Cached:     load(4),
	}
	counts.Total = counts.Found + counts.Infeasible + counts.Truncated + counts.Timeout + counts.Cached
	return counts
}
