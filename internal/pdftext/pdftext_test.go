package pdftext

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPDF 使用 gofpdf 生成多页测试文件
func writeTestPDF(t *testing.T, pages ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.pdf")

	p := gofpdf.New("P", "mm", "A4", "")
	for _, text := range pages {
		p.AddPage()
		p.SetFont("Arial", "", 12)
		p.MultiCell(0, 10, text, "", "L", false)
	}
	require.NoError(t, p.OutputFileAndClose(path))
	return path
}

func TestOpenAndReadPages(t *testing.T) {
	path := writeTestPDF(t, "Hello World from page one", "Second page content")

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 2, doc.NumPages())

	page, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.InDelta(t, 595.28, page.Width, 1)
	assert.InDelta(t, 841.89, page.Height, 1)
	assert.Contains(t, strings.ToLower(page.Text()), "hello")

	second, err := doc.Page(2)
	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(second.Text()), "second")

	_, err = doc.Page(3)
	assert.Error(t, err)
	_, err = doc.Page(0)
	assert.Error(t, err)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestSearchOnRenderedPage(t *testing.T) {
	path := writeTestPDF(t, "Hello World from page one")

	doc, err := Open(path)
	require.NoError(t, err)
	defer doc.Close()

	page, err := doc.Page(1)
	require.NoError(t, err)

	rects := page.Search("HELLO   world")
	require.NotEmpty(t, rects)
	for _, r := range rects {
		assert.Less(t, r.X0, r.X1)
		assert.Less(t, r.Y0, r.Y1)
		assert.GreaterOrEqual(t, r.X0, 0.0)
		assert.LessOrEqual(t, r.Y1, page.Height)
	}

	assert.Empty(t, page.Search("not on this page"))
	assert.Empty(t, page.Search("   "))
}

func TestGroupLines(t *testing.T) {
	// 没有宽度表的字体：同一文本段的字符起点相同
	texts := []pdf.Text{
		{FontSize: 10, X: 50, Y: 700, S: "a"},
		{FontSize: 10, X: 50, Y: 700, S: "b"},
		{FontSize: 10, X: 50, Y: 700, S: " "},
		{FontSize: 10, X: 50, Y: 700, S: "c"},
		{FontSize: 10, X: 50, Y: 680, S: "d"},
		{FontSize: 10, X: 50, Y: 680, S: "e"},
	}

	lines := groupLines(texts)
	require.Len(t, lines, 2)
	require.Len(t, lines[0], 4)

	assert.Equal(t, 50.0, lines[0][0].X)
	assert.InDelta(t, 55.0, lines[0][1].X, 1e-9)
	assert.Greater(t, lines[0][3].X, lines[0][1].X)

	page := &Page{Number: 1, Width: 600, Height: 800, lines: lines}
	assert.Equal(t, "ab c\nde", page.Text())
}

func TestGroupLinesWithWidths(t *testing.T) {
	texts := []pdf.Text{
		{FontSize: 10, X: 10, Y: 100, W: 5, S: "x"},
		{FontSize: 10, X: 30, Y: 100, W: 5, S: "y"},
	}
	lines := groupLines(texts)
	require.Len(t, lines, 1)

	page := &Page{Number: 1, Width: 200, Height: 200, lines: lines}
	// 字符间距超过字号的 0.3 倍时补空格
	assert.Equal(t, "x y", page.Text())
}

func TestSearchAcrossLines(t *testing.T) {
	texts := []pdf.Text{
		{FontSize: 10, X: 10, Y: 190, W: 5, S: "f"},
		{FontSize: 10, X: 15, Y: 190, W: 5, S: "o"},
		{FontSize: 10, X: 20, Y: 190, W: 5, S: "o"},
		{FontSize: 10, X: 10, Y: 170, W: 5, S: "B"},
		{FontSize: 10, X: 15, Y: 170, W: 5, S: "a"},
		{FontSize: 10, X: 20, Y: 170, W: 5, S: "r"},
	}
	page := &Page{Number: 1, Width: 200, Height: 200, lines: groupLines(texts)}

	rects := page.Search("oo bar")
	require.Len(t, rects, 2)

	// 第一行只覆盖 "oo"
	assert.InDelta(t, 15.0, rects[0].X0, 1e-9)
	assert.InDelta(t, 25.0, rects[0].X1, 1e-9)
	assert.InDelta(t, 200-(190+8), rects[0].Y0, 1e-9)
	assert.InDelta(t, 200-(190-2), rects[0].Y1, 1e-9)

	assert.InDelta(t, 10.0, rects[1].X0, 1e-9)
	assert.InDelta(t, 25.0, rects[1].X1, 1e-9)
}

func TestSearchNonOverlapping(t *testing.T) {
	var texts []pdf.Text
	for i, ch := range "aaaa" {
		texts = append(texts, pdf.Text{FontSize: 10, X: float64(10 + 5*i), Y: 100, W: 5, S: string(ch)})
	}
	page := &Page{Number: 1, Width: 200, Height: 200, lines: groupLines(texts)}
	assert.Len(t, page.Search("aa"), 2)
}
