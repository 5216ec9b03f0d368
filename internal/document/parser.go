package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
)

// Loader 格式加载器接口
// 负责将某种格式的文档读取为按页组织的文本
type Loader interface {
	// Load 读取文档，页码保持加载器的原始编号
	Load(ctx context.Context, path string) ([]models.Page, error)
}

// NormalizedDocument 格式归一化的结果
type NormalizedDocument struct {
	Source      string        // 源文件路径
	Kind        FormatKind    // 识别出的格式
	Pages       []models.Page // 按顺序排列的页面
	RenderedPDF string        // 可用于定位和提取图片的 PDF，没有则为空
}

// Text 返回所有页面文本，页与页之间以空行分隔
func (d *NormalizedDocument) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Normalizer 格式归一化器，按 FormatKind 分派到对应的加载器
type Normalizer struct {
	logger         *logrus.Logger
	runner         CommandRunner
	renderer       Renderer
	ocr            OCREngine
	workDir        string
	hwp5html       string
	soffice        string
	renderMarkdown bool
	ocrLanguages   []string
	loaders        map[FormatKind]Loader
}

// NormalizerOption 归一化器配置选项
type NormalizerOption func(*Normalizer)

// WithNormalizerLogger 设置日志记录器
func WithNormalizerLogger(logger *logrus.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithCommandRunner 设置外部命令执行器
func WithCommandRunner(runner CommandRunner) NormalizerOption {
	return func(n *Normalizer) {
		n.runner = runner
	}
}

// WithRenderer 设置标记到 PDF 的渲染器
func WithRenderer(renderer Renderer) NormalizerOption {
	return func(n *Normalizer) {
		n.renderer = renderer
	}
}

// WithOCREngine 设置 OCR 引擎
func WithOCREngine(engine OCREngine) NormalizerOption {
	return func(n *Normalizer) {
		n.ocr = engine
	}
}

// WithOCRLanguages 设置 OCR 识别语言
func WithOCRLanguages(langs ...string) NormalizerOption {
	return func(n *Normalizer) {
		n.ocrLanguages = langs
	}
}

// WithLoaderWorkDir 设置加载器临时目录的父目录
func WithLoaderWorkDir(dir string) NormalizerOption {
	return func(n *Normalizer) {
		n.workDir = dir
	}
}

// WithConverters 设置外部转换工具的可执行文件
func WithConverters(hwp5html, soffice string) NormalizerOption {
	return func(n *Normalizer) {
		if hwp5html != "" {
			n.hwp5html = hwp5html
		}
		if soffice != "" {
			n.soffice = soffice
		}
	}
}

// WithMarkdownRendering 开启后 .md 文件先转为 HTML 再渲染
func WithMarkdownRendering(enabled bool) NormalizerOption {
	return func(n *Normalizer) {
		n.renderMarkdown = enabled
	}
}

// WithLoader 替换某种格式的加载器
func WithLoader(kind FormatKind, loader Loader) NormalizerOption {
	return func(n *Normalizer) {
		n.loaders[kind] = loader
	}
}

// NewNormalizer 创建格式归一化器
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		logger:       logrus.New(),
		hwp5html:     "hwp5html",
		soffice:      "soffice",
		ocrLanguages: []string{"kor", "eng"},
		loaders:      make(map[FormatKind]Loader),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.runner == nil {
		n.runner = NewExecRunner(DefaultCommandTimeout)
	}
	if n.renderer == nil {
		n.renderer = NewChromeRenderer("", DefaultCommandTimeout)
	}
	if n.ocr == nil {
		n.ocr = NewOCREngine()
	}

	pdfLoader := NewPDFLoader(n.logger)
	defaults := map[FormatKind]Loader{
		FormatPDF:          pdfLoader,
		FormatWord:         NewWordLoader(),
		FormatPresentation: NewPresentationLoader(),
		FormatLegacyOffice: NewLegacyOfficeLoader(n.runner, n.soffice, n.workDir, pdfLoader),
		FormatImage:        NewImageLoader(n.ocr, n.ocrLanguages),
		FormatHWP:          NewHWPLoader(n.runner, n.renderer, n.hwp5html, n.workDir, pdfLoader),
		FormatText:         NewTextLoader(n.renderer, n.workDir, n.renderMarkdown, pdfLoader),
		FormatFallback:     NewFallbackLoader(),
	}
	for kind, loader := range defaults {
		if _, ok := n.loaders[kind]; !ok {
			n.loaders[kind] = loader
		}
	}
	return n
}

// Normalize 将文档转换为按页组织的文本
func (n *Normalizer) Normalize(ctx context.Context, path string) (*NormalizedDocument, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, models.NewExtractionError(path, err)
	}

	kind := DetectFormat(path)
	loader, ok := n.loaders[kind]
	if !ok {
		return nil, models.NewExtractionError(path, models.ErrUnsupportedFormat)
	}

	n.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": kind.String(),
	}).Debug("Loading document")

	pages, err := loader.Load(ctx, path)
	if err != nil {
		return nil, models.NewExtractionError(path, err)
	}

	doc := &NormalizedDocument{
		Source: path,
		Kind:   kind,
		Pages:  pages,
	}
	if pdfPath, ok := RenderedPDFPath(path); ok {
		if _, err := os.Stat(pdfPath); err == nil {
			doc.RenderedPDF = pdfPath
		}
	}

	n.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": kind.String(),
		"pages":  len(pages),
	}).Info("Document loaded")
	return doc, nil
}

// newWorkDir 在 base 下创建以 UUID 命名的临时目录，返回清理函数
func newWorkDir(base string) (string, func(), error) {
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("failed to create work dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
