package document

import (
	"path/filepath"
	"strings"
)

// FormatKind 输入文档的格式类别
type FormatKind int

const (
	// FormatFallback 无法按扩展名识别，交给兜底加载器
	FormatFallback FormatKind = iota
	// FormatPDF PDF 文档
	FormatPDF
	// FormatWord Word 类文档（docx、odt）
	FormatWord
	// FormatPresentation 演示文稿（pptx）
	FormatPresentation
	// FormatLegacyOffice 旧版 Office 格式，需要先转换为 PDF
	FormatLegacyOffice
	// FormatImage 图片，通过 OCR 识别文本
	FormatImage
	// FormatHWP 韩文文字处理器文档
	FormatHWP
	// FormatText 纯文本类文档（txt、json、md）
	FormatText
)

var formatNames = map[FormatKind]string{
	FormatFallback:     "fallback",
	FormatPDF:          "pdf",
	FormatWord:         "word",
	FormatPresentation: "presentation",
	FormatLegacyOffice: "legacy_office",
	FormatImage:        "image",
	FormatHWP:          "hwp",
	FormatText:         "text",
}

func (k FormatKind) String() string {
	if name, ok := formatNames[k]; ok {
		return name
	}
	return "unknown"
}

// Rendered 该格式在加载时是否会在源文件旁生成 PDF
func (k FormatKind) Rendered() bool {
	switch k {
	case FormatHWP, FormatText, FormatLegacyOffice:
		return true
	default:
		return false
	}
}

// DetectFormat 根据文件扩展名判断格式
func DetectFormat(path string) FormatKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".docx", ".odt":
		return FormatWord
	case ".pptx":
		return FormatPresentation
	case ".doc", ".ppt", ".xls", ".rtf":
		return FormatLegacyOffice
	case ".jpg", ".jpeg", ".png":
		return FormatImage
	case ".hwp":
		return FormatHWP
	case ".txt", ".json", ".md":
		return FormatText
	default:
		return FormatFallback
	}
}

// RenderedPDFPath 返回文档对应的 PDF 路径（替换扩展名）
// 第二个返回值表示该格式是否有对应的 PDF 可供定位与提取图片
func RenderedPDFPath(path string) (string, bool) {
	kind := DetectFormat(path)
	if kind == FormatPDF {
		return path, true
	}
	if !kind.Rendered() {
		return "", false
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".pdf", true
}
