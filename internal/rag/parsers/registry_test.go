package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserRegistry_Parse(t *testing.T) {
	registry := NewParserRegistry()

	t.Run("解析 txt 文件", func(t *testing.T) {
		text, err := registry.Parse("notes.txt", strings.NewReader("hello world"))
		require.NoError(t, err)
		assert.Equal(t, "hello world", text)
	})

	t.Run("解析 md 文件", func(t *testing.T) {
		text, err := registry.Parse("README.md", strings.NewReader("# Title\n\nbody"))
		require.NoError(t, err)
		assert.Equal(t, "# Title\n\nbody", text)
	})

	t.Run("扩展名大小写不敏感", func(t *testing.T) {
		text, err := registry.Parse("NOTES.TXT", strings.NewReader("abc"))
		require.NoError(t, err)
		assert.Equal(t, "abc", text)
	})

	t.Run("不支持的扩展名返回 ErrUnsupportedFormat", func(t *testing.T) {
		for _, name := range []string{"a.docx", "b.html", "c.csv", "d", "e.PDF.bak"} {
			_, err := registry.Parse(name, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
		}
	})
}

func TestTextParser_InvalidUTF8(t *testing.T) {
	parser := NewTextParser()

	// 非法字节序列被替换, 不返回错误
	text, err := parser.Parse(strings.NewReader("ok\xff\xfe end"))
	require.NoError(t, err)
	assert.Contains(t, text, "ok")
	assert.Contains(t, text, "end")
	assert.Contains(t, text, "�")
}

func TestParserRegistry_CanParse(t *testing.T) {
	registry := NewParserRegistry()

	assert.True(t, registry.CanParse("doc.pdf"))
	assert.True(t, registry.CanParse("doc.txt"))
	assert.True(t, registry.CanParse("doc.md"))
	assert.False(t, registry.CanParse("doc.docx"))
	assert.False(t, registry.CanParse("doc"))
}
