package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// RPCRequests RPC 调用相关
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_requests_total",
			Help: "Total number of JSON-RPC calls issued, by method and endpoint.",
		},
		[]string{"method", "endpoint"},
	)
	RPCRequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_request_errors_total",
			Help: "Total number of failed JSON-RPC calls, by method and endpoint.",
		},
		[]string{"method", "endpoint"},
	)
	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_request_duration_seconds",
			Help:    "Time taken by a JSON-RPC call.",
			Buckets: []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"method"},
	)

	// LogFetchChunks 分块日志抓取指标
	LogFetchChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "log_fetch_chunks_total",
			Help: "Total number of getLogs chunk attempts, by chunk size and outcome.",
		},
		[]string{"chunk_size", "outcome"},
	)
	LogFetchBisections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "log_fetch_bisections_total",
			Help: "Total number of range bisections triggered by failing chunks.",
		},
	)

	// CacheRequests 结果缓存命中统计
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_requests_total",
			Help: "Result cache lookups, by metric and outcome (hit/miss/expired).",
		},
		[]string{"metric", "outcome"},
	)

	// HolderAPIRequests 持有人数量 API 调用统计
	HolderAPIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holder_api_requests_total",
			Help: "Ethplorer holder-count API calls, by outcome.",
		},
		[]string{"outcome"},
	)

	// ENSLookups ENS 反解统计
	ENSLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ens_lookups_total",
			Help: "ENS reverse lookups, by outcome (resolved/miss/cached).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		RPCRequests,
		RPCRequestErrors,
		RPCRequestDuration,

		LogFetchChunks,
		LogFetchBisections,

		CacheRequests,
		HolderAPIRequests,
		ENSLookups,
	)
}
