package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.Document.ChunkSize)
	assert.Equal(t, 100, cfg.Document.ChunkOverlap)
	assert.True(t, cfg.Document.KeepRendered)
	assert.Equal(t, []string{"kor", "eng"}, cfg.Document.OCRLanguages())
	assert.Equal(t, "chrome", cfg.Render.Engine)
	assert.Equal(t, 10*time.Minute, cfg.Render.Timeout)
	assert.Equal(t, "hwp5html", cfg.Convert.HWP5HTML)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
document:
  chunk_size: 400
  chunk_overlap: 50
  keep_rendered: false
  ocr_language: eng
render:
  engine: text
  timeout: 30s
storage:
  enable: true
  type: minio
  bucket: pages
  access_key: ${DOCPREP_TEST_ACCESS_KEY}
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("DOCPREP_TEST_ACCESS_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Document.ChunkSize)
	assert.Equal(t, 50, cfg.Document.ChunkOverlap)
	assert.False(t, cfg.Document.KeepRendered)
	assert.Equal(t, []string{"eng"}, cfg.Document.OCRLanguages())
	assert.Equal(t, "text", cfg.Render.Engine)
	assert.Equal(t, 30*time.Second, cfg.Render.Timeout)
	assert.True(t, cfg.Storage.Enable)
	assert.Equal(t, "minio", cfg.Storage.Type)
	assert.Equal(t, "pages", cfg.Storage.Bucket)
	assert.Equal(t, "from-env", cfg.Storage.AccessKey)
	assert.Equal(t, "debug", cfg.Log.Level)
	// 文件中未出现的键保持默认值
	assert.Equal(t, "soffice", cfg.Convert.Soffice)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DOCUMENT_CHUNK_SIZE", "256")
	t.Setenv("RENDER_ENGINE", "text")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Document.ChunkSize)
	assert.Equal(t, "text", cfg.Render.Engine)
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
