package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	chatHandlers "github.com/dinnysriramcharan/Rag-project/api/handlers/chat"
	fileHandlers "github.com/dinnysriramcharan/Rag-project/api/handlers/files"
	healthHandlers "github.com/dinnysriramcharan/Rag-project/api/handlers/health"
	"github.com/dinnysriramcharan/Rag-project/internal/config"
	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/metrics"
	middlewarepkg "github.com/dinnysriramcharan/Rag-project/internal/middleware"
	"github.com/dinnysriramcharan/Rag-project/internal/rag"
)

// Handlers 所有 HTTP 处理器
type Handlers struct {
	Chat   *chatHandlers.Handler
	Files  *fileHandlers.Handler
	Health *healthHandlers.Handler
}

// AppContainer 应用依赖容器
type AppContainer struct {
	Store       rag.VectorStore
	Embedder    rag.EmbeddingProvider
	Cache       *rag.EmbeddingCache
	Chain       *rag.Chain
	Ingester    *rag.Ingester
	RateLimiter *middlewarepkg.RateLimiter
}

// BuildContainer 装配应用依赖
func BuildContainer(cfg *config.Config) (*AppContainer, error) {
	// 可选的 Redis 嵌入缓存, 不可用时退回进程内缓存
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis 不可用，嵌入缓存退回进程内实现", zap.Error(err))
			redisClient = nil
		}
	}

	embedder := rag.NewOpenAIEmbeddingProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.EmbeddingModel)
	cache := rag.NewEmbeddingCache(redisClient, "", 0)

	store, err := rag.NewPineconeStore(rag.PineconeOptions{
		APIKey:          cfg.Pinecone.APIKey,
		Environment:     cfg.Pinecone.Environment,
		IndexName:       cfg.Pinecone.Index,
		VectorDimension: embedder.GetDimension(),
		ControlPlaneURL: cfg.Pinecone.BaseURL,
		TimeoutSeconds:  cfg.Pinecone.TimeoutSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化向量索引失败: %w", err)
	}

	chatClient := rag.NewOpenAIChatClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.ChatModel, cfg.OpenAI.MaxRetries)

	chain := rag.NewChain(store, embedder, cache, chatClient, rag.ChainOptions{
		ScoreThreshold: cfg.RAG.ScoreThreshold,
		HistoryWindow:  cfg.RAG.HistoryWindow,
		DefaultTopK:    cfg.RAG.DefaultTopK,
	})

	ingester := rag.NewIngester(store, embedder, cache, rag.IngesterOptions{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		BatchSize:    cfg.RAG.EmbedBatchSize,
	})

	return &AppContainer{
		Store:       store,
		Embedder:    embedder,
		Cache:       cache,
		Chain:       chain,
		Ingester:    ingester,
		RateLimiter: middlewarepkg.NewRateLimiter(nil),
	}, nil
}

// SetupRouter 设置并返回 Gin 路由
func SetupRouter(cfg *config.Config, container *AppContainer) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	router := gin.New()

	// 全局中间件
	router.Use(gin.Recovery())
	router.Use(middlewarepkg.RequestIDMiddleware())
	router.Use(RequestLogger())
	router.Use(CORS())
	router.Use(metrics.PrometheusMiddleware())
	router.Use(middlewarepkg.RateLimitMiddleware(container.RateLimiter))

	handlers := &Handlers{
		Chat:   chatHandlers.NewHandler(container.Chain),
		Files:  fileHandlers.NewHandler(container.Ingester, cfg.Upload.MaxFileSize),
		Health: healthHandlers.NewHandler(),
	}

	RegisterRoutes(router, handlers)

	// Prometheus 指标端点
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
