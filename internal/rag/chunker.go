package rag

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators 递归分割的分隔符优先级: 段落 > 换行 > 空格 > 逐字符兜底
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker 文档分块器
// 递归分隔符分割: 优先按段落切分, 超出目标大小的片段再依次用更细的分隔符切分,
// 最后相邻分块之间拼接重叠上下文
type Chunker struct {
	ChunkSize    int // 分块目标大小(字符数)
	ChunkOverlap int // 重叠大小(字符数)
}

// NewChunker 创建新的分块器
// chunkSize: 每个分块的目标字符数
// chunkOverlap: 相邻分块之间的重叠字符数
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1200
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10 // 重叠不超过10%
	}

	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}
}

// Split 将文本分割为有序的分块列表
// 空文本返回空列表; 不超过目标大小的文本返回单个分块且不加重叠
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	if runeLen(text) <= c.ChunkSize {
		return []string{text}
	}

	pieces := c.splitRecursive(text, defaultSeparators)

	// 相邻分块之间从前一块末尾复制重叠上下文, 文档首块除外
	chunks := make([]string, len(pieces))
	for i, piece := range pieces {
		if i == 0 || c.ChunkOverlap == 0 {
			chunks[i] = piece
			continue
		}
		chunks[i] = tailRunes(pieces[i-1], c.ChunkOverlap) + piece
	}

	return chunks
}

// splitRecursive 用当前分隔符切分文本并贪心合并;
// 仍超出目标大小的片段用下一级分隔符递归处理
func (c *Chunker) splitRecursive(text string, separators []string) []string {
	sep := separators[0]
	rest := separators[1:]

	var splits []string
	if sep == "" {
		// 逐字符兜底: 没有更细的分隔符时按固定字符数硬切
		splits = splitByRunes(text, c.ChunkSize)
	} else {
		// SplitAfter 保留分隔符, 保证各片段拼接后还原原文
		splits = strings.SplitAfter(text, sep)
	}

	pieces := make([]string, 0, len(splits))
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if current.Len() > 0 {
			pieces = append(pieces, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, s := range splits {
		if s == "" {
			continue
		}

		sLen := runeLen(s)

		// 单个片段就超出目标大小: 递归用更细的分隔符切分
		if sLen > c.ChunkSize {
			flush()
			if len(rest) > 0 {
				pieces = append(pieces, c.splitRecursive(s, rest)...)
			} else {
				pieces = append(pieces, s)
			}
			continue
		}

		// 合并后超出目标大小: 先产出当前分块
		if currentLen+sLen > c.ChunkSize {
			flush()
		}

		current.WriteString(s)
		currentLen += sLen
	}
	flush()

	return pieces
}

// splitByRunes 按字符数硬切, 不跨越 UTF-8 边界
func splitByRunes(text string, size int) []string {
	runes := []rune(text)
	parts := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

// tailRunes 取文本末尾 n 个字符
func tailRunes(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

// runeLen 文本字符数
func runeLen(text string) int {
	return utf8.RuneCountInString(text)
}
