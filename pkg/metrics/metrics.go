// Package metrics 基于Prometheus的指标收集
//
// 指标设计：
//   - booklend_cache_hits_total{view}      缓存命中数（按视图区分）
//   - booklend_cache_misses_total{view}    缓存未命中数
//   - booklend_cache_errors_total{op}      缓存操作失败数（已被吞掉的CacheFailure）
//   - booklend_lending_operations_total{op,status}  借阅状态机操作数
//   - booklend_http_request_duration_seconds{method,path}  HTTP耗时分布
//
// 缓存指标是观察缓存一致性层健康度的主要手段：
// misses持续偏高说明失效风暴或TTL过短，errors持续增长说明Redis异常。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
// 通过依赖注入传递，避免包级全局状态（便于测试时独立Registry）
type Metrics struct {
	registry *prometheus.Registry

	cacheHits    *prometheus.CounterVec
	cacheMisses  *prometheus.CounterVec
	cacheErrors  *prometheus.CounterVec
	lendingOps   *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New 创建并注册指标集合
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booklend_cache_hits_total",
			Help: "Number of cache hits by cached view.",
		}, []string{"view"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booklend_cache_misses_total",
			Help: "Number of cache misses by cached view.",
		}, []string{"view"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booklend_cache_errors_total",
			Help: "Number of swallowed cache operation errors by operation.",
		}, []string{"op"}),
		lendingOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booklend_lending_operations_total",
			Help: "Number of lending state machine operations by op and status.",
		}, []string{"op", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "booklend_http_request_duration_seconds",
			Help:    "HTTP request latency distribution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	registry.MustRegister(
		m.cacheHits,
		m.cacheMisses,
		m.cacheErrors,
		m.lendingOps,
		m.httpDuration,
	)

	return m
}

// CacheHit 记录一次缓存命中
func (m *Metrics) CacheHit(view string) {
	m.cacheHits.WithLabelValues(view).Inc()
}

// CacheMiss 记录一次缓存未命中
func (m *Metrics) CacheMiss(view string) {
	m.cacheMisses.WithLabelValues(view).Inc()
}

// CacheError 记录一次被吞掉的缓存操作错误
func (m *Metrics) CacheError(op string) {
	m.cacheErrors.WithLabelValues(op).Inc()
}

// LendingOp 记录一次借阅操作（op: register/borrow/return, status: success/failed）
func (m *Metrics) LendingOp(op, status string) {
	m.lendingOps.WithLabelValues(op, status).Inc()
}

// ObserveHTTP 记录一次HTTP请求耗时
func (m *Metrics) ObserveHTTP(method, path string, duration time.Duration) {
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler 暴露/metrics端点的HTTP处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
