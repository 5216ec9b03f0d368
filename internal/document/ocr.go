package document

import (
	"context"
	"errors"
)

// ErrOCRNotEnabled 编译时未启用 OCR
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// OCREngine 图片文字识别接口
type OCREngine interface {
	// Recognize 识别图片中的文本
	Recognize(ctx context.Context, image []byte, languages []string) (string, error)
}
