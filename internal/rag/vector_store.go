package rag

import "context"

// VectorStore 抽象向量索引的写入与检索, 所有操作都限定在单个命名空间内。
// 命名空间之间互不可见, 不存在跨命名空间查询或合并。
type VectorStore interface {
	// Upsert 按 ID 插入或覆盖一批向量
	Upsert(ctx context.Context, items []*IndexedItem, namespace string) error
	// Query 在命名空间内做最近邻检索, 返回按相关度排序的命中列表(含元数据)
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]*Match, error)
}
