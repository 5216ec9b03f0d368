package document

import (
	"context"
	"fmt"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/gabriel-vasile/mimetype"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// FallbackLoader 兜底加载器，按内容嗅探类型
// HTML 转为 Markdown 文本，其他 text/* 原样读取，其余类型报错
type FallbackLoader struct{}

// NewFallbackLoader 创建兜底加载器
func NewFallbackLoader() *FallbackLoader {
	return &FallbackLoader{}
}

// Load 读取未知格式的文档，结果为第0页
func (l *FallbackLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	mtype := mimetype.Detect(data)
	var text string
	switch {
	case mtype.Is("text/html"):
		text, err = htmltomarkdown.ConvertString(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to convert html: %w", err)
		}
	case isTextual(mtype):
		text, err = decodeText(data)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, mtype.String())
	}

	return []models.Page{{Number: 0, Text: text}}, nil
}

// isTextual 判断嗅探结果是否属于文本类型（含父类型）
func isTextual(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}
