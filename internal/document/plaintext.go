package document

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// TextLoader 纯文本加载器（txt、json、md）
// 文本包装为带样式的 HTML，渲染成 PDF 后读取，以便后续定位分块
type TextLoader struct {
	renderer       Renderer
	workDir        string
	renderMarkdown bool
	pdf            Loader
}

// NewTextLoader 创建纯文本加载器
func NewTextLoader(renderer Renderer, workDir string, renderMarkdown bool, pdf Loader) *TextLoader {
	return &TextLoader{renderer: renderer, workDir: workDir, renderMarkdown: renderMarkdown, pdf: pdf}
}

// Load 渲染并读取文本文档
func (l *TextLoader) Load(ctx context.Context, path string) ([]models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}
	content, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	var body string
	if l.renderMarkdown && strings.EqualFold(filepath.Ext(path), ".md") {
		body = string(MarkdownToHTML([]byte(content)))
	} else {
		body = "<pre>" + html.EscapeString(content) + "</pre>"
	}

	dir, cleanup, err := newWorkDir(l.workDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	markup := filepath.Join(dir, "temp.html")
	if err := os.WriteFile(markup, []byte(HTMLPage(body)), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write markup: %w", err)
	}

	pdfPath, _ := RenderedPDFPath(path)
	if err := l.renderer.Render(ctx, markup, pdfPath); err != nil {
		return nil, err
	}
	return loadRendered(ctx, l.pdf, pdfPath)
}

// decodeText 非 UTF-8 输入按 EUC-KR 解码
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(decoded), nil
}

// koreanFonts 返回当前平台可用的韩文字体族
func koreanFonts() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"Apple SD Gothic Neo", "AppleGothic"}
	case "windows":
		return []string{"Malgun Gothic", "맑은 고딕"}
	default:
		return []string{"Noto Sans CJK KR", "DejaVu Sans"}
	}
}

// HTMLPage 将正文包装为完整的 HTML 文档
func HTMLPage(body string) string {
	fonts := koreanFonts()
	quoted := make([]string, len(fonts))
	for i, f := range fonts {
		quoted[i] = "'" + f + "'"
	}

	return `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: ` + strings.Join(quoted, ", ") + `, sans-serif;
            font-size: 12px;
            line-height: 1.6;
        }
        pre {
            font-family: inherit;
            white-space: pre-wrap;
        }
    </style>
</head>
<body>
    ` + body + `
</body>
</html>`
}
