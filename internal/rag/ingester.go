package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/metrics"
	"github.com/dinnysriramcharan/Rag-project/internal/rag/parsers"
)

// IngesterOptions 摄取器配置
type IngesterOptions struct {
	ChunkSize    int // 分块目标大小（字符数）, 默认 1200
	ChunkOverlap int // 相邻分块重叠字符数, 默认 150
	BatchSize    int // 嵌入与写入的批大小, 默认 64
}

// Ingester 文档摄取器: 提取文本 -> 分块 -> 向量化 -> 写入向量索引
type Ingester struct {
	registry  *parsers.ParserRegistry
	chunker   *Chunker
	embedder  EmbeddingProvider
	cache     *EmbeddingCache
	store     VectorStore
	batchSize int
}

// NewIngester 创建摄取器, cache 可为 nil（不启用嵌入缓存）
func NewIngester(store VectorStore, embedder EmbeddingProvider, cache *EmbeddingCache, opts IngesterOptions) *Ingester {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}

	return &Ingester{
		registry:  parsers.NewParserRegistry(),
		chunker:   NewChunker(opts.ChunkSize, opts.ChunkOverlap),
		embedder:  embedder,
		cache:     cache,
		store:     store,
		batchSize: opts.BatchSize,
	}
}

// IngestPath 摄取单个文件或递归摄取目录下所有受支持的文件, 返回写入的分块总数
// 空文件只贡献 0 个分块, 不中断整个目录；其余失败即中止, 已写入的分块不回滚
// （内容寻址的 ID 使重试安全）。整个目录都没有内容时返回 ErrEmptyContent
func (g *Ingester) IngestPath(ctx context.Context, path, namespace string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("访问摄取路径失败: %w", err)
	}

	if !info.IsDir() {
		return g.IngestFile(ctx, path, namespace)
	}

	total := 0
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !g.registry.CanParse(p) {
			return nil
		}

		count, err := g.IngestFile(ctx, p, namespace)
		if err != nil {
			// 单个空文件是"无可摄取"的局部结果, 跳过继续
			if errors.Is(err, ErrEmptyContent) {
				logger.Warn("跳过空文档", zap.String("file", p))
				return nil
			}
			return err
		}
		total += count
		return nil
	})
	if err != nil {
		return total, err
	}

	if total == 0 {
		return 0, ErrEmptyContent
	}
	return total, nil
}

// IngestFile 摄取单个文件, source 元数据记录完整路径
func (g *Ingester) IngestFile(ctx context.Context, path, namespace string) (int, error) {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	return metrics.RecordIngest(fileType, func() (int, error) {
		file, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("打开文件失败: %w", err)
		}
		defer file.Close()

		return g.ingest(ctx, file, filepath.Base(path), path, namespace)
	})
}

// IngestReader 摄取一个数据流（如 HTTP 上传）, source 元数据记录文件名
func (g *Ingester) IngestReader(ctx context.Context, reader io.Reader, fileName, namespace string) (int, error) {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")

	return metrics.RecordIngest(fileType, func() (int, error) {
		return g.ingest(ctx, reader, fileName, fileName, namespace)
	})
}

func (g *Ingester) ingest(ctx context.Context, reader io.Reader, fileName, source, namespace string) (int, error) {
	text, err := g.registry.Parse(fileName, reader)
	if err != nil {
		return 0, fmt.Errorf("提取文本失败: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyContent
	}

	chunks := g.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, ErrEmptyContent
	}

	items := g.buildItems(fileName, source, chunks)

	for start := 0; start < len(items); start += g.batchSize {
		end := start + g.batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := g.upsertBatch(ctx, items[start:end], namespace); err != nil {
			return 0, err
		}
	}

	logger.Info("文档摄取完成",
		zap.String("file", fileName),
		zap.String("namespace", namespace),
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", CountTokens(text)))

	return len(chunks), nil
}

// buildItems 为每个分块生成内容寻址的索引记录
// ID 形如 {文件名}-{分块序号}-{内容哈希前16位}, 同一内容重复摄取产生相同 ID, 写入为覆盖
func (g *Ingester) buildItems(fileName, source string, chunks []string) []*IndexedItem {
	items := make([]*IndexedItem, 0, len(chunks))
	for idx, chunk := range chunks {
		items = append(items, &IndexedItem{
			ID: fmt.Sprintf("%s-%d-%s", fileName, idx, HashText(chunk)),
			Metadata: map[string]any{
				"source":   source,
				"chunk_id": idx,
				"text":     chunk,
			},
		})
	}
	return items
}

// upsertBatch 向量化一批分块并写入索引, 优先使用缓存中的向量
func (g *Ingester) upsertBatch(ctx context.Context, items []*IndexedItem, namespace string) error {
	model := g.embedder.GetModel()

	// 先查缓存, 只对未命中的文本调用嵌入 API
	missing := make([]string, 0, len(items))
	missingIdx := make([]int, 0, len(items))
	for i, item := range items {
		text := item.Metadata["text"].(string)
		if g.cache != nil {
			if vector, ok := g.cache.Get(ctx, text, model); ok {
				item.Values = vector
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) > 0 {
		vectors, err := g.embedder.EmbedBatch(ctx, missing)
		if err != nil {
			return fmt.Errorf("分块向量化失败: %w", err)
		}
		if len(vectors) != len(missing) {
			return fmt.Errorf("嵌入结果数量不匹配: 期望 %d, 实际 %d", len(missing), len(vectors))
		}
		for j, i := range missingIdx {
			items[i].Values = vectors[j]
			if g.cache != nil {
				g.cache.Set(ctx, missing[j], model, vectors[j])
			}
		}
	}

	if err := g.store.Upsert(ctx, items, namespace); err != nil {
		return fmt.Errorf("写入向量索引失败: %w", err)
	}
	return nil
}
