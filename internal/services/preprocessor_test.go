package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/doc-preprocessor/internal/document"
	"github.com/fyerfyer/doc-preprocessor/internal/models"
	"github.com/fyerfyer/doc-preprocessor/pkg/storage"
)

// fakeUploader 记录上传的文件
type fakeUploader struct {
	files []storage.UploadFile
	err   error
}

func (u *fakeUploader) Upload(_ context.Context, files []storage.UploadFile) error {
	u.files = append(u.files, files...)
	return u.err
}

// newTestPreprocessor 使用不依赖浏览器的渲染器
func newTestPreprocessor(t *testing.T, workDir string, opts ...PreprocessorOption) *Preprocessor {
	t.Helper()
	normalizer := document.NewNormalizer(
		document.WithRenderer(document.NewTextPDFRenderer("")),
		document.WithLoaderWorkDir(workDir),
	)
	base := []PreprocessorOption{WithNormalizer(normalizer), WithWorkDir(workDir)}
	return NewPreprocessor(append(base, opts...)...)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "临时目录应已清理")
}

// writeImagePDF 生成带一张图片的单页 PDF
func writeImagePDF(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	imgPath := filepath.Join(dir, "green.jpg")
	require.NoError(t, os.WriteFile(imgPath, buf.Bytes(), 0o644))

	pdfPath := filepath.Join(dir, "report.pdf")
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()
	pdf.Cell(40, 10, "Quarterly report summary")
	pdf.ImageOptions(imgPath, 10, 30, 20, 20, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	require.NoError(t, pdf.OutputFileAndClose(pdfPath))
	return pdfPath
}

func TestProcessText(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	src := filepath.Join(srcDir, "sample.txt")
	require.NoError(t, os.WriteFile(src, []byte("Alpha beta gamma.\nDelta epsilon zeta."), 0o644))

	var stages []models.ProcessStage
	var progress []int
	p := newTestPreprocessor(t, workDir,
		WithKeepRendered(false),
		WithProgress(func(stage models.ProcessStage, pct int) {
			stages = append(stages, stage)
			progress = append(progress, pct)
		}),
	)

	records, err := p.Process(context.Background(), src, ProcessOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, records)

	for i, r := range records {
		assert.Equal(t, i, r.IChunkOnDoc)
		assert.Equal(t, len(records), r.NChunkOfDoc)
		assert.Equal(t, 1, r.IPage)
		assert.LessOrEqual(t, r.IPage, r.EPage)
		assert.Equal(t, "[]", r.MediaFiles)
		assert.NotEmpty(t, r.RegDate)
	}
	assert.Contains(t, records[0].Text, "Alpha")

	boxes, err := records[0].DecodeBBoxes()
	require.NoError(t, err)
	assert.NotEmpty(t, boxes, "渲染后的 PDF 上应能定位到分块")

	assert.Equal(t, []models.ProcessStage{
		models.StageLoading, models.StageChunking, models.StageImages, models.StageComposing,
	}, stages)
	assert.Equal(t, []int{25, 50, 75, 100}, progress)

	_, err = os.Stat(filepath.Join(srcDir, "sample.pdf"))
	assert.True(t, os.IsNotExist(err), "渲染的 PDF 应被删除")
	assertDirEmpty(t, workDir)

	status, ok := p.LastStatus()
	require.True(t, ok)
	assert.Equal(t, src, status.Source)
	assert.Equal(t, models.StageComposing, status.Stage)
	assert.Equal(t, 100, status.Progress)
	assert.False(t, status.Failed)
	assert.False(t, status.Cancelled)
	assert.Len(t, status.Durations, 4)
}

func TestLastStatusBeforeRun(t *testing.T) {
	_, ok := NewPreprocessor().LastStatus()
	assert.False(t, ok)
}

// brokenRenderer 生成无法解析的 PDF
type brokenRenderer struct{}

func (brokenRenderer) Render(_ context.Context, _, pdfPath string) error {
	return os.WriteFile(pdfPath, []byte("not a pdf"), 0o644)
}

// TestProcessRemovesRenderedOnLoadFailure 测试渲染成功但读取失败时仍删除渲染产物
func TestProcessRemovesRenderedOnLoadFailure(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	src := filepath.Join(srcDir, "broken.txt")
	require.NoError(t, os.WriteFile(src, []byte("Rendered into garbage."), 0o644))

	normalizer := document.NewNormalizer(
		document.WithRenderer(brokenRenderer{}),
		document.WithLoaderWorkDir(workDir),
	)
	p := NewPreprocessor(WithNormalizer(normalizer), WithWorkDir(workDir), WithKeepRendered(false))

	_, err := p.Process(context.Background(), src, ProcessOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExtraction))

	_, err = os.Stat(filepath.Join(srcDir, "broken.pdf"))
	assert.True(t, os.IsNotExist(err), "渲染的 PDF 应被删除")
	assertDirEmpty(t, workDir)

	status, ok := p.LastStatus()
	require.True(t, ok)
	assert.True(t, status.Failed)
	assert.False(t, status.Cancelled)
	assert.Equal(t, models.StageLoading, status.Stage)
}

// TestProcessCancelledDuringLoad 测试加载过程中上下文被取消
func TestProcessCancelledDuringLoad(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("Never rendered."), 0o644))

	var stages []models.ProcessStage
	p := newTestPreprocessor(t, workDir, WithProgress(func(stage models.ProcessStage, _ int) {
		stages = append(stages, stage)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records, err := p.Process(ctx, src, ProcessOptions{})
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, models.ErrCancelled))
	assert.False(t, errors.Is(err, models.ErrExtraction), "取消不应报告为解析失败")
	assert.Empty(t, stages)

	status, ok := p.LastStatus()
	require.True(t, ok)
	assert.True(t, status.Cancelled)
	assert.False(t, status.Failed)
	assert.Equal(t, models.StageLoading, status.Stage)
	assertDirEmpty(t, workDir)
}

func TestProcessKeepsRenderedByDefault(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("Keep the rendered copy."), 0o644))

	_, err := newTestPreprocessor(t, t.TempDir()).Process(context.Background(), src, ProcessOptions{})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(srcDir, "notes.pdf"))
	assert.NoError(t, err)
}

// TestProcessCancelledAfterLoad 测试加载后立即取消
func TestProcessCancelledAfterLoad(t *testing.T) {
	srcDir := t.TempDir()
	workDir := t.TempDir()
	src := filepath.Join(srcDir, "sample.txt")
	require.NoError(t, os.WriteFile(src, []byte("Some text that will never be chunked."), 0o644))

	var stages []models.ProcessStage
	checks := 0
	p := newTestPreprocessor(t, workDir,
		WithCancelCheck(func(context.Context) error {
			checks++
			return errors.New("job cancelled by user")
		}),
		WithProgress(func(stage models.ProcessStage, _ int) {
			stages = append(stages, stage)
		}),
	)

	records, err := p.Process(context.Background(), src, ProcessOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrCancelled))
	assert.Nil(t, records)

	assert.Equal(t, 1, checks)
	assert.Equal(t, []models.ProcessStage{models.StageLoading}, stages, "分块阶段不应开始")
	assertDirEmpty(t, workDir)

	status, ok := p.LastStatus()
	require.True(t, ok)
	assert.True(t, status.Cancelled)
	assert.False(t, status.Failed)
	assert.Contains(t, status.Error, "job cancelled by user")
}

func TestProcessPDFWithImages(t *testing.T) {
	dir := t.TempDir()
	workDir := t.TempDir()
	src := writeImagePDF(t, dir)

	t.Run("images attached and uploaded", func(t *testing.T) {
		uploader := &fakeUploader{}
		p := newTestPreprocessor(t, workDir, WithUploader(uploader), WithKeepRendered(false))

		records, err := p.Process(context.Background(), src, ProcessOptions{})
		require.NoError(t, err)
		require.NotEmpty(t, records)

		require.Len(t, uploader.files, 1)
		media, err := records[0].DecodeMediaFiles()
		require.NoError(t, err)
		require.Len(t, media, 1)
		assert.Equal(t, uploader.files[0].Name, media[0].Name)
		assert.Equal(t, 1, media[0].Page)

		_, err = os.Stat(src)
		assert.NoError(t, err, "源 PDF 不能被删除")
		assertDirEmpty(t, workDir)
	})

	t.Run("upload failure does not fail the run", func(t *testing.T) {
		uploader := &fakeUploader{err: errors.New("bucket unavailable")}
		records, err := newTestPreprocessor(t, workDir, WithUploader(uploader)).
			Process(context.Background(), src, ProcessOptions{})
		require.NoError(t, err)
		assert.NotEmpty(t, records)
		assert.Len(t, uploader.files, 1)
	})

	t.Run("skip images", func(t *testing.T) {
		uploader := &fakeUploader{}
		records, err := newTestPreprocessor(t, workDir, WithUploader(uploader)).
			Process(context.Background(), src, ProcessOptions{SkipImages: true})
		require.NoError(t, err)
		assert.Empty(t, uploader.files)
		assert.Equal(t, "[]", records[0].MediaFiles)
	})
}

func TestProcessErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("invalid options", func(t *testing.T) {
		_, err := newTestPreprocessor(t, dir).Process(context.Background(), "x.txt", ProcessOptions{ChunkSize: -5})
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := newTestPreprocessor(t, dir).Process(context.Background(), filepath.Join(dir, "none.pdf"), ProcessOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrExtraction))
	})

	t.Run("empty document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blank.pdf")
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		require.NoError(t, pdf.OutputFileAndClose(path))

		_, err := newTestPreprocessor(t, dir).Process(context.Background(), path, ProcessOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrEmptyDocument))
	})

	assertDirEmpty(t, dir)
}

func TestDefaultCancelCheck(t *testing.T) {
	assert.NoError(t, DefaultCancelCheck(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := DefaultCancelCheck(ctx)
	assert.True(t, errors.Is(err, models.ErrCancelled))
}

func TestSplitterFor(t *testing.T) {
	p := NewPreprocessor(WithSplitterConfig(document.SplitterConfig{ChunkSize: 300, ChunkOverlap: 30}))

	assert.Equal(t, document.SplitterConfig{ChunkSize: 300, ChunkOverlap: 30}, p.splitterFor(ProcessOptions{}))
	assert.Equal(t, document.SplitterConfig{ChunkSize: 800, ChunkOverlap: -1}, p.splitterFor(ProcessOptions{ChunkSize: 800, ChunkOverlap: -1}))
}
