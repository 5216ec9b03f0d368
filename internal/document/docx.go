package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// WordLoader docx/odt 加载器，显式分页符处切分页面
type WordLoader struct{}

// NewWordLoader 创建 Word 加载器
func NewWordLoader() *WordLoader {
	return &WordLoader{}
}

// Load 解析文档正文
func (l *WordLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	if strings.EqualFold(filepath.Ext(path), ".odt") {
		data, err := openZipEntry(r, "content.xml")
		if err != nil {
			return nil, err
		}
		return parseODTContent(data)
	}

	data, err := openZipEntry(r, "word/document.xml")
	if err != nil {
		return nil, err
	}
	return parseDocxContent(data)
}

func parseDocxContent(data []byte) ([]models.Page, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var b pageBuilder
	inText := false
	// w:pPr/w:tabs 下的 w:tab 是制表位定义，不是文本
	inTabs := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				b.endParagraph()
			case "t":
				inText = true
			case "tabs":
				inTabs = true
			case "tab":
				if !inTabs {
					b.paragraph.WriteString("\t")
				}
			case "br", "cr":
				if typ, _ := attrValue(t, "type"); typ == "page" {
					b.pageBreak()
				} else {
					b.paragraph.WriteString("\n")
				}
			case "pageBreakBefore":
				if val, ok := attrValue(t, "val"); !ok || (val != "false" && val != "0") {
					b.pageBreak()
				}
			}
		case xml.CharData:
			if inText {
				b.paragraph.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs = false
			case "p":
				b.endParagraph()
			}
		}
	}
	return b.result(), nil
}

func parseODTContent(data []byte) ([]models.Page, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var b pageBuilder
	depth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse content.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "h":
				if depth == 0 {
					b.endParagraph()
				}
				depth++
			case "s":
				n := 1
				if c, ok := attrValue(t, "c"); ok {
					if v, err := strconv.Atoi(c); err == nil && v > 0 {
						n = v
					}
				}
				b.paragraph.WriteString(strings.Repeat(" ", n))
			case "tab":
				b.paragraph.WriteString("\t")
			case "line-break":
				b.paragraph.WriteString("\n")
			case "soft-page-break":
				b.pageBreak()
			}
		case xml.CharData:
			if depth > 0 {
				b.paragraph.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "h" {
				depth--
				if depth == 0 {
					b.endParagraph()
				}
			}
		}
	}
	return b.result(), nil
}
