package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage 本地文件存储，开发与测试环境使用
// bucket 映射为基础路径下的一级目录
type LocalStorage struct {
	basePath string
}

// NewLocalStorage 创建本地存储服务
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save 写入对象
func (s *LocalStorage) Save(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) error {
	fullPath := filepath.Join(s.basePath, bucket, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Get 读取对象内容
func (s *LocalStorage) Get(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, bucket, filepath.FromSlash(objectName))
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete 删除对象
func (s *LocalStorage) Delete(ctx context.Context, bucket, objectName string) error {
	fullPath := filepath.Join(s.basePath, bucket, filepath.FromSlash(objectName))
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URI 对象的 file:// 地址
func (s *LocalStorage) URI(bucket, objectName string) string {
	return fmt.Sprintf("file://%s", filepath.Join(s.basePath, bucket, filepath.FromSlash(objectName)))
}
