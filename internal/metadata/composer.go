// Package metadata 为文本分块组装扁平化的索引记录
package metadata

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/internal/document"
	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// RegDateLayout reg_date 字段格式（UTC）
const RegDateLayout = "2006-01-02T15:04:05Z"

// BoxLocator 在渲染 PDF 上定位分块
type BoxLocator interface {
	Locate(text string, page int) ([]models.BoundingBox, bool)
}

// Composer 元数据组装器
type Composer struct {
	now    func() time.Time
	logger *logrus.Logger
}

// Option 组装器配置选项
type Option func(*Composer)

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		c.now = now
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewComposer 创建组装器
func NewComposer(opts ...Option) *Composer {
	c := &Composer{
		now:    time.Now,
		logger: logrus.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose 为每个分块生成一条记录
// locator 为 nil 时不做定位，起止页均取分块所在页
func (c *Composer) Compose(set *document.ChunkSet, locator BoxLocator) ([]models.VectorRecord, error) {
	total := len(set.Chunks)
	nPage := set.NumPages()
	regDate := c.now().UTC().Format(RegDateLayout)

	records := make([]models.VectorRecord, 0, total)
	currentPage := 0
	indexOnPage := 0

	for i, chunk := range set.Chunks {
		if i == 0 || chunk.Page != currentPage {
			currentPage = chunk.Page
			indexOnPage = 0
		}

		var boxes []models.BoundingBox
		if locator != nil {
			if found, ok := locator.Locate(chunk.Text, chunk.Page); ok {
				boxes = found
			}
		}
		iPage, ePage := pageSpan(boxes, chunk.Page)

		bboxJSON, err := models.EncodeBBoxes(boxes)
		if err != nil {
			return nil, err
		}

		records = append(records, models.VectorRecord{
			Text:         chunk.Text,
			NChar:        utf8.RuneCountInString(chunk.Text),
			NWord:        len(strings.Fields(chunk.Text)),
			NLine:        CountLines(chunk.Text),
			IPage:        iPage,
			EPage:        ePage,
			IChunkOnPage: indexOnPage,
			NChunkOfPage: set.PageCounts[chunk.Page],
			IChunkOnDoc:  i,
			NChunkOfDoc:  total,
			NPage:        nPage,
			RegDate:      regDate,
			ChunkBBoxes:  bboxJSON,
			MediaFiles:   "[]",
		})
		indexOnPage++
	}

	c.logger.WithFields(logrus.Fields{
		"chunks": total,
		"pages":  nPage,
	}).Debug("Records composed")
	return records, nil
}

// pageSpan 定位框覆盖的最小与最大页码，没有定位框时取分块页
func pageSpan(boxes []models.BoundingBox, page int) (int, int) {
	if len(boxes) == 0 {
		return page, page
	}
	lo, hi := boxes[0].Page, boxes[0].Page
	for _, b := range boxes[1:] {
		if b.Page < lo {
			lo = b.Page
		}
		if b.Page > hi {
			hi = b.Page
		}
	}
	return lo, hi
}

// AttachMedia 按记录的起始页挂载页面图片
func AttachMedia(records []models.VectorRecord, pages map[int][]models.PageImage) error {
	for i := range records {
		encoded, err := models.EncodeMediaFiles(pages[records[i].IPage])
		if err != nil {
			return err
		}
		records[i].MediaFiles = encoded
	}
	return nil
}

// CountLines 统计行数，与按行边界切分后的段数一致
// 末尾的换行不会产生额外的空行，\r\n 视为一个换行
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	lines := 0
	endsWithBreak := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if isLineBreak(r) {
			lines++
			endsWithBreak = true
			if r == '\r' && i+1 < len(runes) && runes[i+1] == '\n' {
				i++
			}
			continue
		}
		endsWithBreak = false
	}
	if !endsWithBreak {
		lines++
	}
	return lines
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
