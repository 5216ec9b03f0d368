package models

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction 格式归一化或渲染失败
	ErrExtraction = errors.New("extraction failed")

	// ErrEmptyDocument 分块后没有可用的文本块
	ErrEmptyDocument = errors.New("empty document")

	// ErrCancelled 处理流程在检查点被取消
	ErrCancelled = errors.New("processing cancelled")

	// ErrUnsupportedFormat 无法识别的文件格式
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ExtractionError 携带源文件路径的提取错误
type ExtractionError struct {
	Path string // 源文件路径
	Err  error  // 原始错误
}

// NewExtractionError 创建提取错误，err 已经是 ExtractionError 时原样返回
func NewExtractionError(path string, err error) error {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return err
	}
	return &ExtractionError{Path: path, Err: err}
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrExtraction) 成立
func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}
