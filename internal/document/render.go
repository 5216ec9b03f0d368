package document

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/net/html"
)

// Renderer 将 HTML/XHTML 标记渲染为 PDF
type Renderer interface {
	Render(ctx context.Context, markupPath, pdfPath string) error
}

// ChromeRenderer 使用无头 Chrome 的打印功能生成 PDF
type ChromeRenderer struct {
	ExecPath string        // Chrome 可执行文件路径，空表示自动查找
	Timeout  time.Duration // 单次渲染超时
}

// NewChromeRenderer 创建 Chrome 渲染器
func NewChromeRenderer(execPath string, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &ChromeRenderer{ExecPath: execPath, Timeout: timeout}
}

// Render 打开本地标记文件并打印为 PDF
func (r *ChromeRenderer) Render(ctx context.Context, markupPath, pdfPath string) error {
	abs, err := filepath.Abs(markupPath)
	if err != nil {
		return fmt.Errorf("failed to resolve markup path: %w", err)
	}
	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("allow-file-access-from-files", true),
	)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var data []byte
	err = chromedp.Run(taskCtx,
		chromedp.Navigate(target),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			data = buf
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to print %s to pdf: %w", markupPath, err)
	}

	if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// TextPDFRenderer 只保留标记中的文本，用 gofpdf 排版输出
// 不依赖浏览器，适合没有 Chrome 的环境
type TextPDFRenderer struct {
	FontPath string  // UTF-8 TrueType 字体，空则使用内置 Arial（仅支持 cp1252）
	FontSize float64 // 字号（pt）
}

// NewTextPDFRenderer 创建文本 PDF 渲染器
func NewTextPDFRenderer(fontPath string) *TextPDFRenderer {
	return &TextPDFRenderer{FontPath: fontPath, FontSize: 9}
}

// Render 提取标记文本并写入 A4 PDF
func (r *TextPDFRenderer) Render(ctx context.Context, markupPath, pdfPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(markupPath)
	if err != nil {
		return fmt.Errorf("failed to read markup: %w", err)
	}
	text, err := MarkupText(data)
	if err != nil {
		return err
	}

	size := r.FontSize
	if size <= 0 {
		size = 9
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(40, 40, 40)
	pdf.SetAutoPageBreak(true, 40)

	translate := func(s string) string { return s }
	if r.FontPath != "" {
		pdf.AddUTF8Font("doc", "", r.FontPath)
		pdf.SetFont("doc", "", size)
	} else {
		translate = pdf.UnicodeTranslatorFromDescriptor("")
		pdf.SetFont("Arial", "", size)
	}

	pdf.AddPage()
	pdf.MultiCell(0, size*1.6, translate(text), "", "L", false)

	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "ul": true, "ol": true, "section": true, "article": true,
}

// MarkupText 提取 HTML 的可见文本，pre 内保留原始空白
func MarkupText(data []byte) (string, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}

	var buf bytes.Buffer
	var walk func(n *html.Node, pre bool)
	walk = func(n *html.Node, pre bool) {
		switch n.Type {
		case html.TextNode:
			if pre {
				buf.WriteString(n.Data)
			} else if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				buf.WriteString(s)
				buf.WriteString(" ")
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "title":
				return
			case "pre":
				pre = true
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			// 行尾不保留单词间补的空格
			for buf.Len() > 0 && buf.Bytes()[buf.Len()-1] == ' ' {
				buf.Truncate(buf.Len() - 1)
			}
			buf.WriteString("\n")
		}
	}
	walk(root, false)

	return strings.TrimSpace(buf.String()), nil
}
