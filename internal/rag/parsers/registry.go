package parsers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat 文件扩展名不在任何解析器的支持列表内
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParserRegistry manages document parsers
type ParserRegistry struct {
	parsers []Parser
}

// NewParserRegistry creates a new registry with default parsers
func NewParserRegistry() *ParserRegistry {
	r := &ParserRegistry{
		parsers: make([]Parser, 0),
	}

	// Register default parsers
	r.Register(NewTextParser())
	r.Register(NewPDFParser())

	return r
}

// Register registers a new parser
func (r *ParserRegistry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Parse chooses the appropriate parser and parses the document
func (r *ParserRegistry) Parse(fileName string, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))

	for _, p := range r.parsers {
		if p.CanParse(ext) {
			return p.Parse(reader)
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// CanParse 检查扩展名是否被任一解析器支持
func (r *ParserRegistry) CanParse(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, p := range r.parsers {
		if p.CanParse(ext) {
			return true
		}
	}
	return false
}
