package document

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// LegacyOfficeLoader 旧版 Office 文档加载器
// 先用 soffice 转换为 PDF，再按 PDF 读取
type LegacyOfficeLoader struct {
	runner  CommandRunner
	soffice string
	workDir string
	pdf     Loader
}

// NewLegacyOfficeLoader 创建旧版 Office 加载器
func NewLegacyOfficeLoader(runner CommandRunner, soffice, workDir string, pdf Loader) *LegacyOfficeLoader {
	return &LegacyOfficeLoader{runner: runner, soffice: soffice, workDir: workDir, pdf: pdf}
}

// Load 转换并读取文档
func (l *LegacyOfficeLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	dir, cleanup, err := newWorkDir(l.workDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, err := l.runner.Run(ctx, l.soffice, "--headless", "--convert-to", "pdf", "--outdir", dir, path); err != nil {
		return nil, fmt.Errorf("failed to convert %s: %w", filepath.Base(path), err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(dir, base+".pdf")
	pdfPath, _ := RenderedPDFPath(path)
	if err := moveFile(converted, pdfPath); err != nil {
		return nil, fmt.Errorf("converter produced no pdf: %w", err)
	}
	return loadRendered(ctx, l.pdf, pdfPath)
}

// moveFile 先尝试重命名，跨设备时退化为复制
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
