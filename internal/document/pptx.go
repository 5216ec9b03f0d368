package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PresentationLoader pptx 加载器，每张幻灯片一页
type PresentationLoader struct{}

// NewPresentationLoader 创建演示文稿加载器
func NewPresentationLoader() *PresentationLoader {
	return &PresentationLoader{}
}

// Load 按幻灯片编号顺序读取文本，页码从0开始
func (l *PresentationLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	type slide struct {
		num  int
		name string
	}
	var slides []slide
	for _, f := range r.File {
		m := slidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: num, name: f.Name})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("no slides found in %s", path)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]models.Page, 0, len(slides))
	for i, s := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := openZipEntry(r, s.name)
		if err != nil {
			return nil, err
		}
		text, err := slideText(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.name, err)
		}
		pages = append(pages, models.Page{Number: i, Text: text})
	}
	return pages, nil
}

// slideText 提取幻灯片中 a:p 段落的文本
func slideText(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				current.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				current.Reset()
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}
