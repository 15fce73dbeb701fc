package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器
type MetricsCollector struct {
	registry *prometheus.Registry

	// API 请求指标
	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	apiResponseSize    *prometheus.HistogramVec

	// 缓存指标
	cacheHitsTotal         *prometheus.CounterVec
	cacheMissesTotal       *prometheus.CounterVec
	cacheInvalidations     *prometheus.CounterVec
	cacheOperationDuration *prometheus.HistogramVec

	// 业务指标
	batchItemsTotal *prometheus.CounterVec
	votesTotal      *prometheus.CounterVec
	staleResponses  prometheus.Counter
}

// NewMetricsCollector 创建指标收集器（使用独立的 Registry，避免重复注册）
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &MetricsCollector{
		registry: reg,

		apiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forums_api_requests_total",
				Help: "Total number of forums API requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		apiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forums_api_request_duration_seconds",
				Help:    "Forums API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		apiResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forums_api_response_size_bytes",
				Help:    "Forums API response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "endpoint"},
		),

		cacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forums_query_cache_hits_total",
				Help: "Total number of query cache hits",
			},
			[]string{"store", "key_prefix"},
		),

		cacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forums_query_cache_misses_total",
				Help: "Total number of query cache misses",
			},
			[]string{"store", "key_prefix"},
		),

		cacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forums_query_cache_invalidations_total",
				Help: "Total number of query cache invalidations",
			},
			[]string{"key_prefix"},
		),

		cacheOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forums_query_cache_fetch_duration_seconds",
				Help:    "Duration of query cache fetches including the backing request",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"key_prefix"},
		),

		batchItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forums_moderation_batch_items_total",
				Help: "Moderation batch items by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),

		votesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forums_votes_total",
				Help: "Optimistic votes by outcome",
			},
			[]string{"outcome"},
		),

		staleResponses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "forums_search_stale_responses_total",
				Help: "Search responses discarded because a newer query superseded them",
			},
		),
	}
}

// Registry 返回指标注册表
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAPIRequest 记录 API 请求指标
func (m *MetricsCollector) RecordAPIRequest(method, endpoint string, status int, duration time.Duration, responseSize int64) {
	m.apiRequestsTotal.WithLabelValues(method, endpoint, getStatusCategory(status)).Inc()
	m.apiRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	if responseSize >= 0 {
		m.apiResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
	}
}

// RecordCacheLookup 记录缓存命中/未命中
func (m *MetricsCollector) RecordCacheLookup(store, keyPrefix string, hit bool) {
	if hit {
		m.cacheHitsTotal.WithLabelValues(store, keyPrefix).Inc()
	} else {
		m.cacheMissesTotal.WithLabelValues(store, keyPrefix).Inc()
	}
}

// RecordCacheFetch 记录缓存回源耗时
func (m *MetricsCollector) RecordCacheFetch(keyPrefix string, duration time.Duration) {
	m.cacheOperationDuration.WithLabelValues(keyPrefix).Observe(duration.Seconds())
}

// RecordCacheInvalidation 记录缓存失效
func (m *MetricsCollector) RecordCacheInvalidation(keyPrefix string) {
	m.cacheInvalidations.WithLabelValues(keyPrefix).Inc()
}

// RecordBatchItem 记录批量审核条目结果
func (m *MetricsCollector) RecordBatchItem(operation, outcome string) {
	m.batchItemsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordVote 记录投票结果
func (m *MetricsCollector) RecordVote(outcome string) {
	m.votesTotal.WithLabelValues(outcome).Inc()
}

// RecordStaleResponse 记录被丢弃的过期搜索结果
func (m *MetricsCollector) RecordStaleResponse() {
	m.staleResponses.Inc()
}

// getStatusCategory 获取状态分类
func getStatusCategory(status int) string {
	switch {
	case status == 0:
		return "error"
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
