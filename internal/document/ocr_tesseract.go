//go:build ocr

package document

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

type tesseractOCR struct{}

// NewOCREngine 返回基于 Tesseract 的识别引擎
func NewOCREngine() OCREngine {
	return tesseractOCR{}
}

// Recognize 每次调用使用独立的客户端，gosseract.Client 不能并发使用
func (tesseractOCR) Recognize(ctx context.Context, image []byte, languages []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("failed to set ocr language: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return text, nil
}
