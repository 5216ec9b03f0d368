package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage 本地文件存储实现
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// Save 保存文件到本地存储，同名文件会被覆盖
func (s *LocalStorage) Save(ctx context.Context, reader io.Reader, name string) (FileInfo, error) {
	if err := validName(name); err != nil {
		return FileInfo{}, err
	}
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}

	filePath := filepath.Join(s.basePath, name)
	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write file: %w", err)
	}

	return FileInfo{
		Name:     name,
		Size:     size,
		MimeType: getMimeType(name),
		Path:     filePath,
	}, nil
}

// Get 获取文件内容
func (s *LocalStorage) Get(_ context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.basePath, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s not found", name)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete 删除文件
func (s *LocalStorage) Delete(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.basePath, name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file %s not found", name)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List 列出所有文件
func (s *LocalStorage) List(_ context.Context) ([]FileInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			MimeType: getMimeType(entry.Name()),
			Path:     filepath.Join(s.basePath, entry.Name()),
		})
	}
	return files, nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(_ context.Context, name string) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.basePath, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
