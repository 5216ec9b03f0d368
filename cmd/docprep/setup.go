package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/doc-preprocessor/config"
	"github.com/fyerfyer/doc-preprocessor/internal/document"
	"github.com/fyerfyer/doc-preprocessor/internal/services"
	"github.com/fyerfyer/doc-preprocessor/pkg/storage"
)

// setupNormalizer 根据配置创建格式归一化器
func setupNormalizer(cfg *config.Config, logger *logrus.Logger) (*document.Normalizer, error) {
	var renderer document.Renderer
	switch cfg.Render.Engine {
	case "", "chrome":
		renderer = document.NewChromeRenderer(cfg.Render.ChromePath, cfg.Render.Timeout)
	case "text":
		renderer = document.NewTextPDFRenderer(cfg.Render.FontPath)
	default:
		return nil, fmt.Errorf("unsupported render engine: %s", cfg.Render.Engine)
	}

	opts := []document.NormalizerOption{
		document.WithNormalizerLogger(logger),
		document.WithRenderer(renderer),
		document.WithCommandRunner(document.NewExecRunner(cfg.Convert.Timeout)),
		document.WithConverters(cfg.Convert.HWP5HTML, cfg.Convert.Soffice),
		document.WithLoaderWorkDir(cfg.Document.WorkDir),
		document.WithMarkdownRendering(cfg.Document.RenderMarkdown),
	}
	if langs := cfg.Document.OCRLanguages(); len(langs) > 0 {
		opts = append(opts, document.WithOCRLanguages(langs...))
	}
	return document.NewNormalizer(opts...), nil
}

// setupUploader 根据配置创建页面图片上传器，未启用时返回 nil
func setupUploader(cfg *config.Config, logger *logrus.Logger) (storage.Uploader, error) {
	if !cfg.Storage.Enable {
		return nil, nil
	}

	s, err := storage.New(storage.Config{
		Type:      cfg.Storage.Type,
		Path:      cfg.Storage.Path,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return storage.NewStorageUploader(s, logger), nil
}

// setupPreprocessor 组装预处理器
func setupPreprocessor(cfg *config.Config, logger *logrus.Logger) (*services.Preprocessor, error) {
	normalizer, err := setupNormalizer(cfg, logger)
	if err != nil {
		return nil, err
	}
	uploader, err := setupUploader(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []services.PreprocessorOption{
		services.WithLogger(logger),
		services.WithNormalizer(normalizer),
		services.WithSplitterConfig(document.SplitterConfig{
			ChunkSize:    cfg.Document.ChunkSize,
			ChunkOverlap: cfg.Document.ChunkOverlap,
		}),
		services.WithWorkDir(cfg.Document.WorkDir),
		services.WithKeepRendered(cfg.Document.KeepRendered),
	}
	if uploader != nil {
		opts = append(opts, services.WithUploader(uploader))
	}
	return services.NewPreprocessor(opts...), nil
}
