package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dinnysriramcharan/Rag-project/internal/metrics"
)

// EmbeddingCache 查询向量缓存
// L1 为进程内 sync.Map, L2 为可选的 Redis; 同一问题反复出现时省掉嵌入调用
type EmbeddingCache struct {
	redis        *redis.Client
	localCache   sync.Map
	prefix       string
	ttl          time.Duration
	maxLocalSize int64
	localCount   atomic.Int64
}

// cachedEmbedding 缓存的向量
type cachedEmbedding struct {
	Vector    []float32 `json:"vector"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEmbeddingCache 创建向量缓存
// redisClient 为 nil 时只使用本地缓存
func NewEmbeddingCache(redisClient *redis.Client, prefix string, ttl time.Duration) *EmbeddingCache {
	if prefix == "" {
		prefix = "emb:"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour // 默认 7 天
	}
	return &EmbeddingCache{
		redis:        redisClient,
		prefix:       prefix,
		ttl:          ttl,
		maxLocalSize: 10000, // 本地最多缓存 1 万条
	}
}

// Get 获取缓存的向量
func (c *EmbeddingCache) Get(ctx context.Context, text, model string) ([]float32, bool) {
	key := c.makeKey(text, model)

	// 先查本地缓存
	if val, ok := c.localCache.Load(key); ok {
		cached := val.(*cachedEmbedding)
		metrics.EmbeddingCacheHitsTotal.Inc()
		return cached.Vector, true
	}

	// 再查 Redis
	if c.redis != nil {
		raw, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var cached cachedEmbedding
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.storeLocal(key, &cached)
				metrics.EmbeddingCacheHitsTotal.Inc()
				return cached.Vector, true
			}
		}
	}

	metrics.EmbeddingCacheMissesTotal.Inc()
	return nil, false
}

// Set 写入缓存
func (c *EmbeddingCache) Set(ctx context.Context, text, model string, vector []float32) {
	key := c.makeKey(text, model)
	cached := &cachedEmbedding{
		Vector:    vector,
		Model:     model,
		CreatedAt: time.Now(),
	}

	c.storeLocal(key, cached)

	if c.redis != nil {
		if raw, err := json.Marshal(cached); err == nil {
			// 缓存写失败不影响主流程
			_ = c.redis.Set(ctx, key, raw, c.ttl).Err()
		}
	}
}

// storeLocal 写入本地缓存, 超过容量上限后不再新增
func (c *EmbeddingCache) storeLocal(key string, cached *cachedEmbedding) {
	if c.localCount.Load() >= c.maxLocalSize {
		return
	}
	if _, loaded := c.localCache.LoadOrStore(key, cached); !loaded {
		c.localCount.Add(1)
	}
}

// makeKey 由模型名和文本内容哈希生成缓存键
func (c *EmbeddingCache) makeKey(text, model string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return c.prefix + hex.EncodeToString(sum[:])
}
