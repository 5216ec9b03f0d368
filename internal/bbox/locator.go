// Package bbox 在渲染后的 PDF 上定位文本分块
package bbox

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/internal/cache"
	"github.com/fyerfyer/doc-preprocessor/internal/models"
	"github.com/fyerfyer/doc-preprocessor/internal/pdftext"
)

// Locator 在 PDF 页面上查找分块文本的位置
type Locator struct {
	path   string
	doc    *pdftext.Document
	pages  int
	cache  *cache.Cache[*pdftext.Page]
	logger *logrus.Logger
}

// NewLocator 打开 PDF 用于定位
// pdfPath 为空或文件不存在时返回空定位器，所有查找都返回 false
func NewLocator(pdfPath string, logger *logrus.Logger) (*Locator, error) {
	if logger == nil {
		logger = logrus.New()
	}
	l := &Locator{
		path:   pdfPath,
		cache:  cache.New[*pdftext.Page](cache.DefaultConfig()),
		logger: logger,
	}
	if pdfPath == "" {
		return l, nil
	}
	if _, err := os.Stat(pdfPath); err != nil {
		return l, nil
	}

	doc, err := pdftext.Open(pdfPath)
	if err != nil {
		return l, fmt.Errorf("failed to open pdf for locating: %w", err)
	}
	l.doc = doc
	l.pages = doc.NumPages()
	return l, nil
}

// PageCount 返回 PDF 页数，没有 PDF 时为0
func (l *Locator) PageCount() int {
	return l.pages
}

// Close 释放 PDF 句柄与页面缓存
func (l *Locator) Close() error {
	l.cache.Clear()
	if l.doc == nil {
		return nil
	}
	return l.doc.Close()
}

// Locate 返回文本在指定页（从1开始）上合并后的定位框
// 页码越界、没有 PDF 或页面无法解析时第二个返回值为 false
func (l *Locator) Locate(text string, page int) ([]models.BoundingBox, bool) {
	if l.doc == nil || page < 1 || page > l.pages {
		return nil, false
	}

	p, err := l.page(page)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"path":  l.path,
			"page":  page,
			"error": err.Error(),
		}).Warn("Failed to parse page for locating")
		return nil, false
	}

	rects := p.Search(text)
	boxes := make([]models.BoundingBox, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, models.BoundingBox{
			Page: page,
			Type: models.ContentTypeText,
			BBox: models.Rect{
				L: clamp(r.X0 / p.Width),
				T: clamp(r.Y0 / p.Height),
				R: clamp(r.X1 / p.Width),
				B: clamp(r.Y1 / p.Height),
			},
		})
	}
	return MergeOverlapping(boxes, 1/p.Width, 1/p.Height), true
}

// page 读取页面，同一页只解析一次
func (l *Locator) page(n int) (*pdftext.Page, error) {
	key := cache.GenerateCacheKey("page", strconv.Itoa(n))
	if p, found := l.cache.Get(key); found {
		return p, nil
	}

	p, err := l.doc.Page(n)
	if err != nil {
		return nil, err
	}
	l.cache.Set(key, p, 0)
	return p, nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
