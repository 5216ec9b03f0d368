package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// UploadFile 待上传的本地文件
type UploadFile struct {
	Path string // 本地路径
	Name string // 上传后的文件名
}

// Uploader 批量上传接口
type Uploader interface {
	Upload(ctx context.Context, files []UploadFile) error
}

// StorageUploader 把文件逐个写入 Storage
type StorageUploader struct {
	storage Storage
	logger  *logrus.Logger
}

// NewStorageUploader 创建上传器
func NewStorageUploader(storage Storage, logger *logrus.Logger) *StorageUploader {
	if logger == nil {
		logger = logrus.New()
	}
	return &StorageUploader{storage: storage, logger: logger}
}

// Upload 依次上传所有文件，返回第一个失败的错误
func (u *StorageUploader) Upload(ctx context.Context, files []UploadFile) error {
	for _, f := range files {
		if err := u.uploadOne(ctx, f); err != nil {
			return err
		}
	}

	u.logger.WithField("count", len(files)).Debug("Files uploaded")
	return nil
}

func (u *StorageUploader) uploadOne(ctx context.Context, f UploadFile) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	defer file.Close()

	info, err := u.storage.Save(ctx, file, f.Name)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", f.Name, err)
	}

	u.logger.WithFields(logrus.Fields{
		"name": info.Name,
		"size": info.Size,
	}).Debug("File uploaded")
	return nil
}
