package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// HWPLoader hwp 加载器：hwp5html 转为 XHTML，渲染成 PDF 后读取
type HWPLoader struct {
	runner   CommandRunner
	renderer Renderer
	hwp5html string
	workDir  string
	pdf      Loader
}

// NewHWPLoader 创建 hwp 加载器
func NewHWPLoader(runner CommandRunner, renderer Renderer, hwp5html, workDir string, pdf Loader) *HWPLoader {
	return &HWPLoader{runner: runner, renderer: renderer, hwp5html: hwp5html, workDir: workDir, pdf: pdf}
}

// Load 转换并读取文档，临时目录在任何情况下都会被删除
func (l *HWPLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	dir, cleanup, err := newWorkDir(l.workDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := l.runner.Run(ctx, l.hwp5html, path, "--output", dir); err != nil {
		return nil, fmt.Errorf("failed to convert %s to xhtml: %w", filepath.Base(path), err)
	}

	xhtml := filepath.Join(dir, "index.xhtml")
	if _, err := os.Stat(xhtml); err != nil {
		return nil, fmt.Errorf("hwp5html produced no index.xhtml: %w", err)
	}

	pdfPath, _ := RenderedPDFPath(path)
	if err := l.renderer.Render(ctx, xhtml, pdfPath); err != nil {
		return nil, err
	}
	return loadRendered(ctx, l.pdf, pdfPath)
}
