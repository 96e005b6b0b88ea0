package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API 指标
var (
	// APIRequestsTotal API 请求总数
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_api_requests_total",
			Help: "API 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	// APIRequestDuration API 请求延迟（秒）
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragchat_api_request_duration_seconds",
			Help:    "API 请求延迟分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// APIRequestSize API 请求体大小（字节）
	APIRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragchat_api_request_size_bytes",
			Help:    "API 请求体大小分布",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		},
		[]string{"method", "path"},
	)
)

// 检索指标
var (
	// RAGSearchesTotal 向量检索总数
	RAGSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_rag_searches_total",
			Help: "向量检索总数",
		},
		[]string{"namespace", "status"},
	)

	// RAGSearchDuration 向量检索耗时（秒）
	RAGSearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragchat_rag_search_duration_seconds",
			Help:    "向量检索耗时分布",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2},
		},
		[]string{"namespace"},
	)

	// RAGSearchResults 向量检索命中数量
	RAGSearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragchat_rag_search_results",
			Help:    "向量检索命中数量分布",
			Buckets: []float64{1, 2, 5, 10, 20},
		},
		[]string{"namespace"},
	)
)

// 问答指标
var (
	// ChatRequestsTotal 问答请求总数, mode 区分闲聊与文档问答
	ChatRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_chat_requests_total",
			Help: "问答请求总数",
		},
		[]string{"mode", "status"},
	)

	// ChatDuration 问答耗时（秒）
	ChatDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragchat_chat_duration_seconds",
			Help:    "问答耗时分布",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)
)

// 摄取指标
var (
	// DocumentsIngestedTotal 摄取文档总数
	DocumentsIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_documents_ingested_total",
			Help: "摄取文档总数",
		},
		[]string{"file_type", "status"},
	)

	// ChunksIngestedTotal 写入向量索引的分块总数
	ChunksIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_chunks_ingested_total",
			Help: "写入向量索引的分块总数",
		},
	)

	// IngestDuration 单文档摄取耗时（秒）
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragchat_ingest_duration_seconds",
			Help:    "单文档摄取耗时分布",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"file_type"},
	)
)

// 嵌入指标
var (
	// EmbeddingRequestsTotal 嵌入 API 调用总数
	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragchat_embedding_requests_total",
			Help: "嵌入 API 调用总数",
		},
		[]string{"model", "status"},
	)

	// EmbeddingCacheHitsTotal 嵌入缓存命中总数
	EmbeddingCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_embedding_cache_hits_total",
			Help: "嵌入缓存命中总数",
		},
	)

	// EmbeddingCacheMissesTotal 嵌入缓存未命中总数
	EmbeddingCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragchat_embedding_cache_misses_total",
			Help: "嵌入缓存未命中总数",
		},
	)
)
