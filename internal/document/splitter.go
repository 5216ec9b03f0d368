package document

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

const (
	// DefaultChunkSize 默认分块大小（字符数）
	DefaultChunkSize = 512
	// DefaultChunkOverlap 默认分块重叠（字符数）
	DefaultChunkOverlap = 100
)

// DefaultSeparators 递归分割使用的分隔符，优先级从高到低
var DefaultSeparators = []string{"\n\n", "\n", ". ", "。", " ", ""}

// SplitterConfig 分段器配置
type SplitterConfig struct {
	ChunkSize    int // 分块大小（按字符数），0 表示默认值
	ChunkOverlap int // 分块重叠大小，0 表示默认值，负数表示不重叠
}

// DefaultSplitterConfig 返回默认分段器配置
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
}

// resolve 填充默认值，保证重叠小于分块大小
func (c SplitterConfig) resolve() SplitterConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	switch {
	case c.ChunkOverlap < 0:
		c.ChunkOverlap = 0
	case c.ChunkOverlap == 0:
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 5
	}
	return c
}

// ChunkSet 一次分块的结果
type ChunkSet struct {
	Kind       FormatKind     // 源文档格式
	Chunks     []models.Chunk // 按文档顺序排列的分块
	PageCounts map[int]int    // 每页的分块数量
}

// NumPages 返回分块中出现的最大页码
func (s *ChunkSet) NumPages() int {
	max := 0
	for _, c := range s.Chunks {
		if c.Page > max {
			max = c.Page
		}
	}
	return max
}

// TextSplitter 文本分段器，逐页递归切分
type TextSplitter struct {
	config   SplitterConfig
	splitter textsplitter.RecursiveCharacter
}

// NewTextSplitter 创建新的文本分段器
func NewTextSplitter(config SplitterConfig) *TextSplitter {
	config = config.resolve()
	return &TextSplitter{
		config: config,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(config.ChunkSize),
			textsplitter.WithChunkOverlap(config.ChunkOverlap),
			textsplitter.WithSeparators(DefaultSeparators),
		),
	}
}

// Config 返回填充默认值后的配置
func (s *TextSplitter) Config() SplitterConfig {
	return s.config
}

// Split 将归一化文档切分为分块，并修正页码
// 每页单独切分，分块不会跨页；空白分块被丢弃
func (s *TextSplitter) Split(doc *NormalizedDocument) (*ChunkSet, error) {
	set := &ChunkSet{
		Kind:       doc.Kind,
		PageCounts: make(map[int]int),
	}

	for _, page := range doc.Pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		parts, err := s.splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}

		pageNum := NormalizePageNumber(doc.Kind, page.Number)
		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			set.Chunks = append(set.Chunks, models.Chunk{
				Text:  part,
				Page:  pageNum,
				Index: len(set.Chunks),
			})
			set.PageCounts[pageNum]++
		}
	}

	if len(set.Chunks) == 0 {
		return nil, models.ErrEmptyDocument
	}
	return set, nil
}

// NormalizePageNumber 把加载器的原始页码统一为从1开始
// 图片格式本身从1开始，只把非正数修正为1；其余格式从0开始，非负数加1
func NormalizePageNumber(kind FormatKind, page int) int {
	if kind == FormatImage {
		if page <= 0 {
			return 1
		}
		return page
	}
	if page >= 0 {
		return page + 1
	}
	return page
}
