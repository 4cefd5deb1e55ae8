package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
)

// GCSStorage Google Cloud Storage 存储
type GCSStorage struct {
	client *gcs.Client
}

// NewGCSStorage 创建 GCS 存储服务，凭证走应用默认凭证
func NewGCSStorage(ctx context.Context) (*GCSStorage, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

// Save 写入对象
func (s *GCSStorage) Save(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) error {
	w := s.client.Bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload object to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize GCS upload: %w", err)
	}
	return nil
}

// Get 读取对象内容
func (s *GCSStorage) Get(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := s.client.Bucket(bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read object from GCS: %w", err)
	}
	return r, nil
}

// Delete 删除对象
func (s *GCSStorage) Delete(ctx context.Context, bucket, objectName string) error {
	err := s.client.Bucket(bucket).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object from GCS: %w", err)
	}
	return nil
}

// URI 对象的 gs:// 地址
func (s *GCSStorage) URI(bucket, objectName string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, objectName)
}

// Close 关闭客户端
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
