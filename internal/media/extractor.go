// Package media 提取 PDF 页面内嵌的图片
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/fyerfyer/doc-preprocessor/internal/models"
	"github.com/fyerfyer/doc-preprocessor/pkg/storage"
)

// Result 图片提取结果
type Result struct {
	Pages map[int][]models.PageImage // 页码（从1开始）到图片列表
	Files []storage.UploadFile       // 需要上传的本地文件
}

// Count 返回提取到的图片总数
func (r *Result) Count() int {
	return len(r.Files)
}

// Extractor 页面图片提取器
type Extractor struct {
	outDir string
	logger *logrus.Logger
}

// NewExtractor 创建提取器，图片保存在 outDir 下
func NewExtractor(outDir string, logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{outDir: outDir, logger: logger}
}

// Extract 提取 PDF 每一页的图片并统一转换为不透明 RGB 的 PNG
// PDF 不存在或无法解析时返回空结果；单张图片失败只记录警告
func (e *Extractor) Extract(ctx context.Context, pdfPath string) (*Result, error) {
	result := &Result{Pages: make(map[int][]models.PageImage)}
	if pdfPath == "" {
		return result, nil
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		if !os.IsNotExist(err) {
			e.logger.WithFields(logrus.Fields{
				"path":  pdfPath,
				"error": err.Error(),
			}).Warn("Failed to open pdf for image extraction")
		}
		return result, nil
	}
	defer f.Close()

	pdfCtx, err := readContext(f)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"path":  pdfPath,
			"error": err.Error(),
		}).Warn("Failed to read pdf for image extraction")
		return result, nil
	}
	if pdfCtx.Optimize == nil {
		return result, nil
	}

	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}

	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		objNrs := pdfcpu.ImageObjNrs(pdfCtx, pageNr)
		sort.Ints(objNrs)
		for _, objNr := range objNrs {
			name, err := e.extractOne(pdfCtx, pageNr, objNr)
			if err != nil {
				e.logger.WithFields(logrus.Fields{
					"path":  pdfPath,
					"page":  pageNr,
					"obj":   objNr,
					"error": err.Error(),
				}).Warn("Failed to save image")
				continue
			}
			if name == "" {
				continue
			}

			result.Files = append(result.Files, storage.UploadFile{
				Path: filepath.Join(e.outDir, name),
				Name: name,
			})
			result.Pages[pageNr] = append(result.Pages[pageNr], models.PageImage{
				Name: name,
				Type: models.ContentTypeImage,
				Page: pageNr,
			})
		}
	}

	e.logger.WithFields(logrus.Fields{
		"path":   pdfPath,
		"images": result.Count(),
	}).Debug("Page images extracted")
	return result, nil
}

// readContext 读取并优化 PDF，优化后才能按页查询图片对象
func readContext(rs io.ReadSeeker) (pdfCtx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while reading pdf: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.Cmd = model.EXTRACTIMAGES
	return api.ReadValidateAndOptimize(rs, conf)
}

// extractOne 返回保存的文件名，不支持的图片返回空名
func (e *Extractor) extractOne(pdfCtx *model.Context, pageNr, objNr int) (name string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while extracting image: %v", r)
		}
	}()

	obj, ok := pdfCtx.Optimize.ImageObjects[objNr]
	if !ok || obj == nil {
		return "", nil
	}
	img, err := pdfcpu.ExtractImage(pdfCtx, obj.ImageDict, false, obj.ResourceNames[pageNr-1], objNr, false)
	if err != nil {
		return "", err
	}
	if img == nil {
		return "", nil
	}

	data, err := io.ReadAll(img)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	return SaveImage(data, e.outDir)
}

// SaveImage 解码图片，转换为 RGB 后以 <uuid>.png 保存到 dir
func SaveImage(data []byte, dir string) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	name := uuid.New().String() + ".png"
	if err := writePNG(filepath.Join(dir, name), ToRGB(src)); err != nil {
		return "", err
	}
	return name, nil
}

// writePNG 编码失败或关闭失败时删除写了一半的文件
func writePNG(path string, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close image file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// ToRGB 把任意颜色模型（带透明度、CMYK、灰度）绘制到白色背景上
// 结果完全不透明，编码为 PNG 时只保留 RGB 三通道
func ToRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}
