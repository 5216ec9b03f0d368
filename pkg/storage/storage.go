package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// FileInfo 文件元数据结构
type FileInfo struct {
	Name     string // 存储名（即对象键）
	Size     int64  // 文件大小(字节)
	MimeType string // 文件MIME类型
	Path     string // 内部存储路径(实现相关)
}

// Storage 文件存储接口
// 文件按调用方给定的名字保存，可以有不同实现(本地文件系统、MinIO等)
type Storage interface {
	// Save 以 name 保存文件并返回文件信息
	Save(ctx context.Context, reader io.Reader, name string) (FileInfo, error)

	// Get 获取文件内容
	Get(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete 删除文件
	Delete(ctx context.Context, name string) error

	// List 列出所有文件
	List(ctx context.Context) ([]FileInfo, error)

	// Exists 检查文件是否存在
	Exists(ctx context.Context, name string) (bool, error)
}

// Config 存储配置
type Config struct {
	Type      string // local 或 minio
	Path      string // 本地存储路径
	Endpoint  string // MinIO服务端点
	AccessKey string // 访问密钥ID
	SecretKey string // 秘密访问密钥
	UseSSL    bool   // 是否使用SSL
	Bucket    string // 存储桶名称
}

// New 根据配置创建存储实现
func New(cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "local":
		return NewLocalStorage(LocalConfig{Path: cfg.Path})
	case "minio":
		return NewMinioStorage(MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			Bucket:    cfg.Bucket,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// validName 存储名不能为空或包含路径
func validName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name: %q", name)
	}
	return nil
}

// getMimeType 简单根据文件扩展名判断MIME类型
func getMimeType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
