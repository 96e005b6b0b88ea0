package rag

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenEncoderOnce sync.Once
	tokenEncoder     *tiktoken.Tiktoken
)

// CountTokens 估算文本的 token 数量, 用于摄取日志和指标
// 使用 cl100k_base 编码(与 text-embedding-3-small 一致);
// 编码器初始化失败时退化为按空白分词计数
func CountTokens(text string) int {
	tokenEncoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err == nil {
			tokenEncoder = enc
		}
	})

	if tokenEncoder == nil {
		return len(strings.Fields(text))
	}
	return len(tokenEncoder.Encode(text, nil, nil))
}
