// Package services 编排文档预处理流程
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/internal/bbox"
	"github.com/fyerfyer/doc-preprocessor/internal/document"
	"github.com/fyerfyer/doc-preprocessor/internal/media"
	"github.com/fyerfyer/doc-preprocessor/internal/metadata"
	"github.com/fyerfyer/doc-preprocessor/internal/models"
	"github.com/fyerfyer/doc-preprocessor/pkg/storage"
)

// CancelCheck 取消检查，返回非 nil 表示应停止处理
type CancelCheck func(ctx context.Context) error

// DefaultCancelCheck 上下文结束时返回 ErrCancelled
func DefaultCancelCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCancelled, err)
	}
	return nil
}

// ProcessOptions 单次处理参数，零值使用预处理器的配置
type ProcessOptions struct {
	// ChunkSize 分块大小（字符）
	ChunkSize int `validate:"gte=0,lte=100000"`
	// ChunkOverlap 分块重叠，-1 表示不重叠
	ChunkOverlap int `validate:"gte=-1"`
	// SkipImages 不提取页面图片
	SkipImages bool
}

// Preprocessor 文档预处理器
// 负责协调格式归一化、分块、图片提取与元数据组装
type Preprocessor struct {
	normalizer     *document.Normalizer
	splitterConfig document.SplitterConfig
	uploader       storage.Uploader
	cancelCheck    CancelCheck
	onProgress     ProgressFunc
	workDir        string
	keepRendered   bool
	validate       *validator.Validate
	logger         *logrus.Logger

	mu   sync.Mutex
	last *StatusTracker
}

// PreprocessorOption 预处理器配置选项
type PreprocessorOption func(*Preprocessor)

// WithLogger 设置日志记录器
func WithLogger(logger *logrus.Logger) PreprocessorOption {
	return func(p *Preprocessor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithNormalizer 设置格式归一化器
func WithNormalizer(n *document.Normalizer) PreprocessorOption {
	return func(p *Preprocessor) {
		p.normalizer = n
	}
}

// WithSplitterConfig 设置默认分块参数
func WithSplitterConfig(cfg document.SplitterConfig) PreprocessorOption {
	return func(p *Preprocessor) {
		p.splitterConfig = cfg
	}
}

// WithUploader 设置页面图片上传器
func WithUploader(u storage.Uploader) PreprocessorOption {
	return func(p *Preprocessor) {
		p.uploader = u
	}
}

// WithCancelCheck 设置取消检查
func WithCancelCheck(check CancelCheck) PreprocessorOption {
	return func(p *Preprocessor) {
		if check != nil {
			p.cancelCheck = check
		}
	}
}

// WithProgress 设置阶段完成回调
func WithProgress(fn ProgressFunc) PreprocessorOption {
	return func(p *Preprocessor) {
		p.onProgress = fn
	}
}

// WithWorkDir 设置每次运行临时目录的父目录
func WithWorkDir(dir string) PreprocessorOption {
	return func(p *Preprocessor) {
		p.workDir = dir
	}
}

// WithKeepRendered 设置是否保留渲染生成的 PDF
func WithKeepRendered(keep bool) PreprocessorOption {
	return func(p *Preprocessor) {
		p.keepRendered = keep
	}
}

// NewPreprocessor 创建预处理器
func NewPreprocessor(opts ...PreprocessorOption) *Preprocessor {
	p := &Preprocessor{
		splitterConfig: document.DefaultSplitterConfig(),
		cancelCheck:    DefaultCancelCheck,
		keepRendered:   true,
		validate:       validator.New(),
		logger:         logrus.New(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.normalizer == nil {
		p.normalizer = document.NewNormalizer(
			document.WithNormalizerLogger(p.logger),
			document.WithLoaderWorkDir(p.workDir),
		)
	}
	return p
}

// Process 处理单个文档，返回每个分块的索引记录
func (p *Preprocessor) Process(ctx context.Context, path string, opts ProcessOptions) ([]models.VectorRecord, error) {
	if err := p.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid process options: %w", err)
	}

	runDir, cleanup, err := p.newRunDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	tracker := NewStatusTracker(path, p.logger, p.onProgress)
	p.setLast(tracker)
	p.logger.WithFields(logrus.Fields{
		"path":    path,
		"run_dir": runDir,
	}).Info("Preprocessing document")

	// 渲染产物在加载失败时也可能已经生成
	if !p.keepRendered {
		if rendered, ok := document.RenderedPDFPath(path); ok {
			defer p.removeRendered(path, rendered)
		}
	}

	// 1. 格式归一化
	tracker.Begin(models.StageLoading)
	doc, err := p.normalizer.Normalize(ctx, path)
	if err != nil {
		return nil, p.stageError(ctx, tracker, err)
	}
	tracker.Complete(logrus.Fields{"pages": len(doc.Pages), "format": doc.Kind.String()})

	if err := p.checkpoint(ctx, tracker); err != nil {
		return nil, err
	}

	// 2. 分块
	tracker.Begin(models.StageChunking)
	set, err := document.NewTextSplitter(p.splitterFor(opts)).Split(doc)
	if err != nil {
		return nil, p.stageError(ctx, tracker, err)
	}
	tracker.Complete(logrus.Fields{"chunks": len(set.Chunks)})

	if err := p.checkpoint(ctx, tracker); err != nil {
		return nil, err
	}

	// 3. 页面图片
	tracker.Begin(models.StageImages)
	images := &media.Result{Pages: make(map[int][]models.PageImage)}
	if !opts.SkipImages {
		images, err = media.NewExtractor(filepath.Join(runDir, "images"), p.logger).Extract(ctx, doc.RenderedPDF)
		if err != nil {
			return nil, p.stageError(ctx, tracker, err)
		}
		p.upload(ctx, images.Files)
	}
	tracker.Complete(logrus.Fields{"images": images.Count()})

	if err := p.checkpoint(ctx, tracker); err != nil {
		return nil, err
	}

	// 4. 元数据
	tracker.Begin(models.StageComposing)
	locator, err := bbox.NewLocator(doc.RenderedPDF, p.logger)
	if err != nil {
		p.logger.WithFields(logrus.Fields{
			"path":  doc.RenderedPDF,
			"error": err.Error(),
		}).Warn("Bounding boxes unavailable")
	}
	defer locator.Close()

	records, err := metadata.NewComposer(metadata.WithLogger(p.logger)).Compose(set, locator)
	if err != nil {
		return nil, p.stageError(ctx, tracker, err)
	}
	if err := metadata.AttachMedia(records, images.Pages); err != nil {
		return nil, p.stageError(ctx, tracker, err)
	}
	tracker.Complete(logrus.Fields{"records": len(records)})

	p.logger.WithFields(logrus.Fields{
		"path":    path,
		"records": len(records),
		"images":  images.Count(),
	}).Info("Document preprocessed")
	return records, nil
}

// LastStatus 返回最近一次 Process 的状态，尚未运行时第二个返回值为 false
func (p *Preprocessor) LastStatus() (RunStatus, bool) {
	p.mu.Lock()
	last := p.last
	p.mu.Unlock()
	if last == nil {
		return RunStatus{}, false
	}
	return last.Snapshot(), true
}

func (p *Preprocessor) setLast(tracker *StatusTracker) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = tracker
}

// checkpoint 执行取消检查，统一包装为 ErrCancelled
// 取消属于主动中止，不记为失败
func (p *Preprocessor) checkpoint(ctx context.Context, tracker *StatusTracker) error {
	err := p.cancelCheck(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.ErrCancelled) {
		err = fmt.Errorf("%w: %v", models.ErrCancelled, err)
	}
	tracker.Cancel(err)
	return err
}

// stageError 阶段出错时先判断是否因取消而中断，否则记为失败
func (p *Preprocessor) stageError(ctx context.Context, tracker *StatusTracker, err error) error {
	if cerr := p.checkpoint(ctx, tracker); cerr != nil {
		return cerr
	}
	tracker.Fail(err)
	return err
}

// splitterFor 单次参数覆盖默认分块配置
func (p *Preprocessor) splitterFor(opts ProcessOptions) document.SplitterConfig {
	cfg := p.splitterConfig
	if opts.ChunkSize > 0 {
		cfg.ChunkSize = opts.ChunkSize
	}
	if opts.ChunkOverlap != 0 {
		cfg.ChunkOverlap = opts.ChunkOverlap
	}
	return cfg
}

// upload 上传失败只记录日志，不影响处理结果
func (p *Preprocessor) upload(ctx context.Context, files []storage.UploadFile) {
	if p.uploader == nil || len(files) == 0 {
		return
	}
	if err := p.uploader.Upload(ctx, files); err != nil {
		p.logger.WithFields(logrus.Fields{
			"files": len(files),
			"error": err.Error(),
		}).Warn("Failed to upload page images")
	}
}

// removeRendered 删除渲染生成的 PDF，源文件本身是 PDF 时不删除
func (p *Preprocessor) removeRendered(source, rendered string) {
	if rendered == "" || samePath(source, rendered) {
		return
	}
	if err := os.Remove(rendered); err != nil && !os.IsNotExist(err) {
		p.logger.WithFields(logrus.Fields{
			"path":  rendered,
			"error": err.Error(),
		}).Warn("Failed to remove rendered pdf")
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// newRunDir 创建本次运行专属的临时目录
func (p *Preprocessor) newRunDir() (string, func(), error) {
	base := p.workDir
	if base == "" {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "run-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", func() {}, fmt.Errorf("failed to create run dir: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}
