package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// openZipEntry 读取压缩包内指定条目
func openZipEntry(r *zip.ReadCloser, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// pageBuilder 按段落累积文本，遇到分页符时切换到新页
type pageBuilder struct {
	pages     []string
	current   []string
	paragraph strings.Builder
}

func (b *pageBuilder) endParagraph() {
	text := strings.TrimSpace(b.paragraph.String())
	b.paragraph.Reset()
	if text != "" {
		b.current = append(b.current, text)
	}
}

func (b *pageBuilder) pageBreak() {
	b.endParagraph()
	if len(b.current) == 0 {
		return
	}
	b.pages = append(b.pages, strings.Join(b.current, "\n\n"))
	b.current = nil
}

// result 返回页面列表，页码从0开始；没有文本时返回一个空页
func (b *pageBuilder) result() []models.Page {
	b.pageBreak()
	if len(b.pages) == 0 {
		return []models.Page{{Number: 0}}
	}
	pages := make([]models.Page, len(b.pages))
	for i, text := range b.pages {
		pages[i] = models.Page{Number: i, Text: text}
	}
	return pages
}

func attrValue(el xml.StartElement, local string) (string, bool) {
	for _, attr := range el.Attr {
		if attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}
