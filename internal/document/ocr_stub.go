//go:build !ocr

package document

import "context"

type stubOCR struct{}

// NewOCREngine 未启用 ocr 构建标签时返回的占位实现
func NewOCREngine() OCREngine {
	return stubOCR{}
}

func (stubOCR) Recognize(context.Context, []byte, []string) (string, error) {
	return "", ErrOCRNotEnabled
}
