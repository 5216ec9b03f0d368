// Package pdftext 提供带坐标信息的 PDF 页面文本层
package pdftext

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// 缺少 MediaBox 时使用的 US Letter 尺寸
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// Document 已打开的 PDF 文档
type Document struct {
	path   string
	file   *os.File
	reader *pdf.Reader
}

// Open 打开 PDF 文件
func Open(path string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to open pdf %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	return &Document{path: path, file: f, reader: reader}, nil
}

// Close 关闭底层文件
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// NumPages 返回页数
func (d *Document) NumPages() (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return d.reader.NumPage()
}

// Page 读取第 n 页（从1开始）
func (d *Document) Page(n int) (page *Page, err error) {
	if n < 1 || n > d.NumPages() {
		return nil, fmt.Errorf("page %d out of range", n)
	}

	defer func() {
		if r := recover(); r != nil {
			page = nil
			err = fmt.Errorf("failed to read page %d of %s: %v", n, d.path, r)
		}
	}()

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d not found in %s", n, d.path)
	}

	page = &Page{Number: n}
	page.originX, page.originY, page.Width, page.Height = pageBox(p.V)
	page.lines = groupLines(p.Content().Text)
	return page, nil
}

// pageBox 沿 Parent 链查找 CropBox，没有则取 MediaBox
func pageBox(v pdf.Value) (x0, y0, width, height float64) {
	box := inherited(v, "CropBox")
	if box.Len() < 4 {
		box = inherited(v, "MediaBox")
	}
	if box.Len() < 4 {
		return 0, 0, defaultPageWidth, defaultPageHeight
	}

	llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
	urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
	width = math.Abs(urx - llx)
	height = math.Abs(ury - lly)
	if width == 0 || height == 0 {
		return 0, 0, defaultPageWidth, defaultPageHeight
	}
	return math.Min(llx, urx), math.Min(lly, ury), width, height
}

func inherited(v pdf.Value, key string) pdf.Value {
	// 防止损坏文件中 Parent 成环
	for depth := 0; !v.IsNull() && depth < 32; depth++ {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// Glyph 页面上的单个字符，坐标为 PDF 用户空间（左下角原点）
type Glyph struct {
	Text string
	X    float64
	Y    float64
	W    float64
	Size float64
}

// groupLines 按内容流顺序把字符分组成行
// 字体没有宽度表时按字号估算字宽，并据此推进同一文本段内的 X 坐标
func groupLines(texts []pdf.Text) [][]Glyph {
	var (
		lines   [][]Glyph
		current []Glyph
		cursor  float64
		rawX    float64
		lineY   float64
	)

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, current)
		}
		current = nil
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		if t.S == "\n" || t.S == "\r" {
			flush()
			continue
		}

		size := t.FontSize
		if size <= 0 {
			size = 1
		}

		if len(current) > 0 && math.Abs(t.Y-lineY) > 0.5*size {
			flush()
		}

		g := Glyph{Text: t.S, X: t.X, Y: t.Y, W: t.W, Size: size}
		if g.W <= 0 {
			g.W = estimateWidth(t.S, size)
			// 同一文本段的字符共享起点，需要按估算宽度推进
			if len(current) > 0 && math.Abs(t.X-rawX) < 0.01 {
				g.X = cursor
			}
		}
		rawX = t.X

		if len(current) == 0 {
			lineY = t.Y
		}
		current = append(current, g)
		cursor = g.X + g.W
	}
	flush()
	return lines
}

func estimateWidth(s string, size float64) float64 {
	var w float64
	for _, r := range s {
		switch {
		case unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana):
			w += size
		case unicode.IsSpace(r):
			w += 0.28 * size
		default:
			w += 0.5 * size
		}
	}
	return w
}

// Page 解析后的单页
type Page struct {
	Number int     // 页码（从1开始）
	Width  float64 // 页面宽度（点）
	Height float64 // 页面高度（点）

	originX float64
	originY float64
	lines   [][]Glyph
}

// Lines 返回按行分组的字符
func (p *Page) Lines() [][]Glyph {
	return p.lines
}

// Text 返回页面纯文本，行间以换行分隔，段落间距较大时插入空行
func (p *Page) Text() string {
	var sb strings.Builder
	for i, line := range p.lines {
		if i > 0 {
			sb.WriteString("\n")
			prev := p.lines[i-1]
			gap := math.Abs(prev[0].Y - line[0].Y)
			if gap > 2*math.Max(prev[0].Size, line[0].Size) {
				sb.WriteString("\n")
			}
		}
		writeLine(&sb, line)
	}
	return sb.String()
}

func writeLine(sb *strings.Builder, line []Glyph) {
	for j, g := range line {
		if j > 0 {
			prev := line[j-1]
			gap := g.X - (prev.X + prev.W)
			if gap > 0.3*g.Size && !isBlank(prev.Text) && !isBlank(g.Text) {
				sb.WriteString(" ")
			}
		}
		sb.WriteString(g.Text)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Rect 左上角原点的页面像素坐标矩形
type Rect struct {
	X0 float64
	Y0 float64
	X1 float64
	Y1 float64
}

// rectOf 计算一行内一段字符的矩形
func (p *Page) rectOf(glyphs []Glyph) Rect {
	r := Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, g := range glyphs {
		left := g.X - p.originX
		right := left + g.W
		top := p.Height - (g.Y - p.originY + 0.8*g.Size)
		bottom := p.Height - (g.Y - p.originY - 0.2*g.Size)
		r.X0 = math.Min(r.X0, left)
		r.X1 = math.Max(r.X1, right)
		r.Y0 = math.Min(r.Y0, top)
		r.Y1 = math.Max(r.Y1, bottom)
	}
	return r
}
