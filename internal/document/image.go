package document

import (
	"context"
	"fmt"
	"os"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// ImageLoader 图片加载器，OCR 结果作为第1页
type ImageLoader struct {
	engine    OCREngine
	languages []string
}

// NewImageLoader 创建图片加载器
func NewImageLoader(engine OCREngine, languages []string) *ImageLoader {
	return &ImageLoader{engine: engine, languages: languages}
}

// Load 识别图片文本
func (l *ImageLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	text, err := l.engine.Recognize(ctx, data, l.languages)
	if err != nil {
		return nil, err
	}
	return []models.Page{{Number: 1, Text: text}}, nil
}
