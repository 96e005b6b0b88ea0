package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dinnysriramcharan/Rag-project/pkg/httputil"
)

// PineconeOptions 初始化 Pinecone 向量存储的配置
type PineconeOptions struct {
	APIKey          string
	Environment     string // serverless region, 如 us-east-1
	IndexName       string
	VectorDimension int
	Metric          string
	TimeoutSeconds  int
	ControlPlaneURL string // 默认 https://api.pinecone.io
	DataPlaneURL    string // 通常由 describe index 得到, 测试时可直接注入
	SkipIndexCheck  bool
}

// PineconeStore 基于 Pinecone HTTP API 的向量存储实现
// 索引存在性检查和创建只在构造后第一次使用时执行一次, 不在查询/摄取热路径上反复进行
type PineconeStore struct {
	client     *httputil.Client
	controlURL string
	dataURL    string
	indexName  string
	vectorSize int
	metric     string
	region     string
	skipEnsure bool
	ensureOnce sync.Once
	ensureErr  error
}

// NewPineconeStore 创建 Pinecone 向量存储实例
func NewPineconeStore(opts PineconeOptions) (*PineconeStore, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("pinecone api key 不能为空")
	}

	controlURL := strings.TrimSpace(opts.ControlPlaneURL)
	if controlURL == "" {
		controlURL = "https://api.pinecone.io"
	}
	controlURL = strings.TrimSuffix(controlURL, "/")

	indexName := opts.IndexName
	if indexName == "" {
		indexName = "documents"
	}

	vectorSize := opts.VectorDimension
	if vectorSize <= 0 {
		vectorSize = 1536
	}

	metric := opts.Metric
	if metric == "" {
		metric = "cosine"
	}

	timeout := opts.TimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}

	client := httputil.NewClient(
		httputil.WithTimeout(time.Duration(timeout)*time.Second),
		httputil.WithHeaders(map[string]string{
			"Api-Key":                opts.APIKey,
			"X-Pinecone-API-Version": "2025-01",
		}),
	)

	store := &PineconeStore{
		client:     client,
		controlURL: controlURL,
		dataURL:    normalizeHost(opts.DataPlaneURL),
		indexName:  indexName,
		vectorSize: vectorSize,
		metric:     metric,
		region:     opts.Environment,
		skipEnsure: opts.SkipIndexCheck,
	}

	return store, nil
}

// Upsert 写入或覆盖一批向量
func (s *PineconeStore) Upsert(ctx context.Context, items []*IndexedItem, namespace string) error {
	if len(items) == 0 {
		return nil
	}
	if err := s.ensureIndex(ctx); err != nil {
		return err
	}

	vectors := make([]pineconeVector, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if len(item.Values) != s.vectorSize {
			return fmt.Errorf("向量维度不匹配: 期望 %d 实际 %d", s.vectorSize, len(item.Values))
		}
		vectors = append(vectors, pineconeVector{
			ID:       item.ID,
			Values:   item.Values,
			Metadata: item.Metadata,
		})
	}

	req := upsertRequest{
		Vectors:   vectors,
		Namespace: namespaceOrDefault(namespace),
	}

	var resp upsertResponse
	if err := s.client.PostJSON(ctx, s.dataURL+"/vectors/upsert", req, &resp); err != nil {
		return fmt.Errorf("pinecone upsert 失败: %w", err)
	}
	return nil
}

// Query 在命名空间内执行最近邻检索
func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]*Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("查询向量不能为空")
	}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 5
	}

	req := queryRequest{
		Vector:          vector,
		TopK:            topK,
		Namespace:       namespaceOrDefault(namespace),
		IncludeMetadata: true,
	}

	var resp queryResponse
	if err := s.client.PostJSON(ctx, s.dataURL+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("pinecone query 失败: %w", err)
	}

	matches := make([]*Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, &Match{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return matches, nil
}

// ensureIndex 确保索引存在并解析数据面地址, 仅执行一次
func (s *PineconeStore) ensureIndex(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		if s.skipEnsure {
			if s.dataURL == "" {
				s.ensureErr = fmt.Errorf("跳过索引检查时必须提供 DataPlaneURL")
			}
			return
		}
		s.ensureErr = s.bootstrapIndex(ctx)
	})
	return s.ensureErr
}

// bootstrapIndex 列出索引, 不存在则创建(1536 维, cosine, serverless), 然后解析数据面 host
func (s *PineconeStore) bootstrapIndex(ctx context.Context) error {
	var list listIndexesResponse
	if err := s.client.GetJSON(ctx, s.controlURL+"/indexes", &list); err != nil {
		return fmt.Errorf("pinecone 列出索引失败: %w", err)
	}

	var host string
	for _, idx := range list.Indexes {
		if idx.Name == s.indexName {
			host = idx.Host
			break
		}
	}

	if host == "" {
		req := createIndexRequest{
			Name:      s.indexName,
			Dimension: s.vectorSize,
			Metric:    s.metric,
		}
		req.Spec.Serverless.Cloud = "aws"
		req.Spec.Serverless.Region = s.region

		var created indexDescription
		if err := s.client.PostJSON(ctx, s.controlURL+"/indexes", req, &created); err != nil {
			return fmt.Errorf("pinecone 创建索引失败: %w", err)
		}
		host = created.Host
	}

	if host == "" {
		return fmt.Errorf("pinecone 索引 %s 没有可用的数据面地址", s.indexName)
	}

	if s.dataURL == "" {
		s.dataURL = normalizeHost(host)
	}
	return nil
}

// namespaceOrDefault 空命名空间落到 default
func namespaceOrDefault(namespace string) string {
	if namespace == "" {
		return DefaultNamespace
	}
	return namespace
}

// normalizeHost 数据面地址统一为带 scheme 且不带尾部斜杠的形式
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return strings.TrimSuffix(host, "/")
}

// ========== Pinecone 请求/响应结构 ==========

type pineconeVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []pineconeVector `json:"vectors"`
	Namespace string           `json:"namespace"`
}

type upsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	Namespace       string    `json:"namespace"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type queryResponse struct {
	Matches   []queryMatch `json:"matches"`
	Namespace string       `json:"namespace"`
}

type indexDescription struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

type listIndexesResponse struct {
	Indexes []indexDescription `json:"indexes"`
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Spec      struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}
