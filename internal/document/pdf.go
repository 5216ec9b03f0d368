package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
	"github.com/fyerfyer/doc-preprocessor/internal/pdftext"
)

// PDFLoader PDF 加载器，每页一条记录，页码从0开始
type PDFLoader struct {
	logger *logrus.Logger
}

// NewPDFLoader 创建 PDF 加载器
func NewPDFLoader(logger *logrus.Logger) *PDFLoader {
	if logger == nil {
		logger = logrus.New()
	}
	return &PDFLoader{logger: logger}
}

// Load 逐页读取 PDF 文本，单页解析失败时保留空白页以维持页码
func (l *PDFLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	doc, err := pdftext.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	total := doc.NumPages()
	if total == 0 {
		return nil, errors.New("pdf has no pages")
	}

	pages := make([]models.Page, 0, total)
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var text string
		page, err := doc.Page(n)
		if err != nil {
			l.logger.WithFields(logrus.Fields{
				"path":  path,
				"page":  n,
				"error": err.Error(),
			}).Warn("Failed to read pdf page")
		} else {
			text = page.Text()
		}
		pages = append(pages, models.Page{Number: n - 1, Text: text})
	}
	return pages, nil
}

// loadRendered 渲染生成的 PDF 必须存在且可读
func loadRendered(ctx context.Context, loader Loader, pdfPath string) ([]models.Page, error) {
	pages, err := loader.Load(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rendered pdf: %w", err)
	}
	return pages, nil
}
