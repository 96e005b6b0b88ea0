package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngester(store *fakeStore) *Ingester {
	return NewIngester(store, &fakeEmbedder{}, nil, IngesterOptions{})
}

func TestIngestReader(t *testing.T) {
	store := &fakeStore{}
	ingester := newTestIngester(store)

	content := "退款政策\n\n自购买之日起三十天内可以无理由退款。"
	count, err := ingester.IngestReader(context.Background(), strings.NewReader(content), "policy.txt", "kb")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, "kb", store.upsertNS)

	items := store.upserted[0]
	require.Len(t, items, 1)

	// ID 采用内容寻址: {文件名}-{序号}-{哈希前16位}
	expectedID := fmt.Sprintf("policy.txt-0-%s", HashText(content))
	assert.Equal(t, expectedID, items[0].ID)
	assert.Equal(t, "policy.txt", items[0].Metadata["source"])
	assert.Equal(t, 0, items[0].Metadata["chunk_id"])
	assert.Equal(t, content, items[0].Metadata["text"])
	assert.NotEmpty(t, items[0].Values, "写入前应完成向量化")
}

func TestIngestReaderIdempotentIDs(t *testing.T) {
	content := "同一份内容摄取两次应产生相同的 ID。"

	store1 := &fakeStore{}
	_, err := newTestIngester(store1).IngestReader(context.Background(), strings.NewReader(content), "a.txt", "")
	require.NoError(t, err)

	store2 := &fakeStore{}
	_, err = newTestIngester(store2).IngestReader(context.Background(), strings.NewReader(content), "a.txt", "")
	require.NoError(t, err)

	assert.Equal(t, store1.upserted[0][0].ID, store2.upserted[0][0].ID)
}

func TestIngestReaderEmptyContent(t *testing.T) {
	store := &fakeStore{}
	ingester := newTestIngester(store)

	_, err := ingester.IngestReader(context.Background(), strings.NewReader("   \n\n  "), "blank.txt", "")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Empty(t, store.upserted, "空文档不应触发写入")
}

func TestIngestReaderUnsupportedFormat(t *testing.T) {
	store := &fakeStore{}
	ingester := newTestIngester(store)

	_, err := ingester.IngestReader(context.Background(), strings.NewReader("data"), "image.png", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIngestReaderBatching(t *testing.T) {
	store := &fakeStore{}
	ingester := NewIngester(store, &fakeEmbedder{}, nil, IngesterOptions{
		ChunkSize:    50,
		ChunkOverlap: 5,
		BatchSize:    2,
	})

	var sb strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, "第 %d 段内容, 用来撑出多个分块。\n\n", i)
	}

	count, err := ingester.IngestReader(context.Background(), strings.NewReader(sb.String()), "long.txt", "")
	require.NoError(t, err)
	require.Greater(t, count, 2)

	// 每批最多 2 条
	total := 0
	for _, batch := range store.upserted {
		assert.LessOrEqual(t, len(batch), 2)
		total += len(batch)
	}
	assert.Equal(t, count, total)
	assert.Greater(t, len(store.upserted), 1)
}

func TestIngestPathDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("第一份文档的内容。"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# 第二份文档\n\n正文。"), 0644))
	// 不支持的扩展名应被跳过
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.csv"), []byte("x,y"), 0644))

	store := &fakeStore{}
	ingester := newTestIngester(store)

	count, err := ingester.IngestPath(context.Background(), dir, "default")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sources := make([]string, 0)
	for _, batch := range store.upserted {
		for _, item := range batch {
			sources = append(sources, item.Metadata["source"].(string))
		}
	}
	require.Len(t, sources, 2)
	for _, s := range sources {
		assert.True(t, strings.HasPrefix(s, dir), "source 应记录完整路径")
	}
}

func TestIngestPathSkipsBlankFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("   \n\n  "), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("有内容的文档。"), 0644))

	store := &fakeStore{}
	ingester := newTestIngester(store)

	// 空文件只贡献 0 个分块, 不中断后续文件
	count, err := ingester.IngestPath(context.Background(), dir, "default")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.Len(t, store.upserted, 1)
	assert.Equal(t, filepath.Join(dir, "b.txt"), store.upserted[0][0].Metadata["source"])
}

func TestIngestPathAllBlankFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("  "), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("\n\n"), 0644))

	store := &fakeStore{}
	ingester := newTestIngester(store)

	// 整个目录都没有内容时报告"无可摄取"
	_, err := ingester.IngestPath(context.Background(), dir, "default")
	assert.ErrorIs(t, err, ErrEmptyContent)
	assert.Empty(t, store.upserted)
}

func TestIngestPathEmptyDirectory(t *testing.T) {
	store := &fakeStore{}
	ingester := newTestIngester(store)

	_, err := ingester.IngestPath(context.Background(), t.TempDir(), "default")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestIngestPathMissing(t *testing.T) {
	store := &fakeStore{}
	ingester := newTestIngester(store)

	_, err := ingester.IngestPath(context.Background(), "/no/such/path", "default")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyContent))
}

func TestIngestReaderUsesCache(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	cache := NewEmbeddingCache(nil, "", 0)
	ingester := NewIngester(store, embedder, cache, IngesterOptions{})

	content := "缓存测试内容。"
	_, err := ingester.IngestReader(context.Background(), strings.NewReader(content), "a.txt", "")
	require.NoError(t, err)
	firstCalls := embedder.calls

	// 第二次摄取同一内容应命中缓存, 不再调用嵌入 API
	_, err = ingester.IngestReader(context.Background(), strings.NewReader(content), "a.txt", "")
	require.NoError(t, err)
	assert.Equal(t, firstCalls, embedder.calls)
}
