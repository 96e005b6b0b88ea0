package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dinnysriramcharan/Rag-project/internal/logger"
	"github.com/dinnysriramcharan/Rag-project/internal/metrics"
)

// systemPrompt 问答链的系统提示词
const systemPrompt = "You are a helpful AI assistant that can answer questions about uploaded documents and engage in general conversation. " +
	"When you have relevant document context provided, use it to give accurate, detailed answers. " +
	"When no relevant context is available, you can still help with general questions using your knowledge. " +
	"Always be friendly, helpful, and conversational. If you reference information from the provided documents, " +
	"mention that it's from the uploaded content."

// ChainOptions 问答链配置
type ChainOptions struct {
	ScoreThreshold float64 // 相关度门限, 低于等于该分数的命中不进入上下文
	HistoryWindow  int     // 附带的历史轮数
	Temperature    float32 // 生成温度
	DefaultTopK    int     // 未指定时的检索条数
}

// Chain 检索增强问答链: 分类 -> 检索 -> 组装上下文 -> 生成回答
type Chain struct {
	store    VectorStore
	embedder EmbeddingProvider
	cache    *EmbeddingCache
	chat     ChatCompleter
	opts     ChainOptions
}

// NewChain 创建问答链, cache 可为 nil（不启用嵌入缓存）
func NewChain(store VectorStore, embedder EmbeddingProvider, cache *EmbeddingCache, chat ChatCompleter, opts ChainOptions) *Chain {
	if opts.ScoreThreshold <= 0 {
		opts.ScoreThreshold = 0.3
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 3
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.2
	}
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 5
	}

	return &Chain{
		store:    store,
		embedder: embedder,
		cache:    cache,
		chat:     chat,
		opts:     opts,
	}
}

// Chat 处理一次用户提问, 返回回答与引用列表
// 闲聊类消息跳过检索; 检索结果全部低于门限时回退到通用知识, 但引用仍镜像检索结果
func (c *Chain) Chat(ctx context.Context, message string, history []ChatTurn, topK int, namespace string) (*ChatResult, error) {
	if topK <= 0 {
		topK = c.opts.DefaultTopK
	}

	var retrieved []*Match
	var userContent string

	if IsGeneralConversation(message) {
		userContent = message
	} else {
		matches, err := c.retrieve(ctx, message, topK, namespace)
		if err != nil {
			return nil, err
		}
		retrieved = matches
		userContent = c.buildUserContent(message, matches)
	}

	messages := make([]ChatTurn, 0, 2+c.opts.HistoryWindow)
	messages = append(messages,
		ChatTurn{Role: "system", Content: systemPrompt},
		ChatTurn{Role: "user", Content: userContent},
	)
	if len(history) > c.opts.HistoryWindow {
		history = history[len(history)-c.opts.HistoryWindow:]
	}
	for _, turn := range history {
		role := turn.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, ChatTurn{Role: role, Content: turn.Content})
	}

	answer, err := c.chat.Complete(ctx, messages, c.opts.Temperature)
	if err != nil {
		return nil, fmt.Errorf("生成回答失败: %w", err)
	}

	// 引用列表与本次检索一一对应, 不做门限过滤
	citations := make([]Citation, 0, len(retrieved))
	for _, m := range retrieved {
		citations = append(citations, Citation{
			ID:     m.ID,
			Score:  m.Score,
			Source: metadataString(m.Metadata, "source"),
		})
	}

	return &ChatResult{Answer: answer, Citations: citations}, nil
}

// retrieve 向量化问题并查询索引
func (c *Chain) retrieve(ctx context.Context, message string, topK int, namespace string) ([]*Match, error) {
	vector, err := c.embedText(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("问题向量化失败: %w", err)
	}

	var matches []*Match
	_, err = metrics.RecordRAGSearch(namespaceLabel(namespace), func() (int, error) {
		var queryErr error
		matches, queryErr = c.store.Query(ctx, vector, topK, namespace)
		return len(matches), queryErr
	})
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	logger.Debug("向量检索完成",
		zap.Int("top_k", topK),
		zap.Int("matches", len(matches)),
		zap.String("namespace", namespace))

	return matches, nil
}

// embedText 单条文本向量化, 优先走缓存
func (c *Chain) embedText(ctx context.Context, text string) ([]float32, error) {
	model := c.embedder.GetModel()
	if c.cache != nil {
		if vector, ok := c.cache.Get(ctx, text, model); ok {
			return vector, nil
		}
	}

	vector, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(ctx, text, model, vector)
	}
	return vector, nil
}

// buildUserContent 按检索结果组装用户消息
// 存在高于门限的命中时引导模型使用文档上下文, 否则附注说明回退到通用知识
func (c *Chain) buildUserContent(message string, matches []*Match) string {
	contextText := BuildContext(matches)

	relevant := false
	for _, m := range matches {
		if m.Score > c.opts.ScoreThreshold {
			relevant = true
			break
		}
	}

	if relevant && strings.TrimSpace(contextText) != "" {
		return fmt.Sprintf("Here's some relevant information from uploaded documents:\n\n%s\n\nNow, please answer this question: %s", contextText, message)
	}
	return fmt.Sprintf("Question: %s\n\n(Note: No relevant document context was found for this query, so please answer using your general knowledge.)", message)
}

// BuildContext 把检索命中拼接成上下文文本, 每条命中一个 Source 块
func BuildContext(matches []*Match) string {
	if len(matches) == 0 {
		return ""
	}

	lines := make([]string, 0, len(matches)*3)
	for _, m := range matches {
		source := metadataString(m.Metadata, "source")
		if source == "" {
			source = "unknown"
		}
		snippet := metadataString(m.Metadata, "text")
		if snippet == "" {
			snippet = metadataString(m.Metadata, "content")
		}
		lines = append(lines, "Source: "+source, snippet, "")
	}
	return strings.Join(lines, "\n")
}

// namespaceLabel 指标标签用的命名空间, 空值归一为默认命名空间
func namespaceLabel(namespace string) string {
	if namespace == "" {
		return DefaultNamespace
	}
	return namespace
}

// metadataString 从元数据中取字符串字段, 缺失或类型不符时返回空串
func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
