package rag

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/dinnysriramcharan/Rag-project/internal/rag/parsers"
)

// 核心错误类型
var (
	// ErrUnsupportedFormat 文件扩展名不在支持列表内
	ErrUnsupportedFormat = parsers.ErrUnsupportedFormat
	// ErrEmptyContent 文档提取或分块后没有任何文本
	ErrEmptyContent = errors.New("文档内容为空")
)

// DefaultNamespace 向量索引的默认命名空间
const DefaultNamespace = "default"

// IndexedItem 写入向量索引的一条记录
// ID: {文件名}-{分块序号}-{内容哈希前16位}, 内容寻址, 重复摄取同一内容覆盖而非重复
type IndexedItem struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

// Match 一次向量检索命中的结果, 仅在单次查询内存在
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"` // 余弦相似度, [0,1]
	Metadata map[string]any `json:"metadata"`
}

// ChatTurn 一轮对话消息
type ChatTurn struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// Citation 引用信息, 镜像本次检索到的条目
type Citation struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// ChatResult 一次问答的最终结果
type ChatResult struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// HashText 计算文本的内容哈希, 取 sha256 十六进制前 16 位
// 仅用于派生标识, 不用于安全场景; 哈希相同意味着内容逐字节相同, 覆盖写入是安全的
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
