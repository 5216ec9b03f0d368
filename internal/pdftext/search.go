package pdftext

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type glyphRef struct {
	line  int
	glyph int
}

// foldText 统一为 NFC、小写并去掉所有空白
func foldText(s string) string {
	s = norm.NFC.String(s)
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// Search 在页面上查找 needle 的所有不重叠出现位置
// 匹配忽略空白与大小写，每次命中按行返回一个矩形
func (p *Page) Search(needle string) []Rect {
	target := foldText(needle)
	if target == "" {
		return nil
	}

	var (
		compact strings.Builder
		refs    []glyphRef
	)
	for li, line := range p.lines {
		for gi, g := range line {
			folded := foldText(g.Text)
			compact.WriteString(folded)
			for i := 0; i < len(folded); i++ {
				refs = append(refs, glyphRef{line: li, glyph: gi})
			}
		}
	}

	haystack := compact.String()
	var rects []Rect
	for offset := 0; offset < len(haystack); {
		idx := strings.Index(haystack[offset:], target)
		if idx < 0 {
			break
		}
		start := offset + idx
		end := start + len(target)
		rects = append(rects, p.hitRects(refs[start:end])...)
		offset = end
	}
	return rects
}

// hitRects 把一次命中涉及的字符按行拆成矩形
func (p *Page) hitRects(refs []glyphRef) []Rect {
	var (
		rects   []Rect
		glyphs  []Glyph
		curLine = -1
		last    = glyphRef{line: -1, glyph: -1}
	)
	for _, ref := range refs {
		if ref == last {
			continue
		}
		last = ref
		if ref.line != curLine {
			if len(glyphs) > 0 {
				rects = append(rects, p.rectOf(glyphs))
			}
			glyphs = nil
			curLine = ref.line
		}
		glyphs = append(glyphs, p.lines[ref.line][ref.glyph])
	}
	if len(glyphs) > 0 {
		rects = append(rects, p.rectOf(glyphs))
	}
	return rects
}
