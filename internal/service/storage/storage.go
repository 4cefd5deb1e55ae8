package storage

import (
	"context"
	"io"

	"github.com/formlead/formlead/internal/config"
)

// Storage 对象存储接口
// 上传桶与处理结果桶共用同一客户端，对象键由调用方决定
type Storage interface {
	// Save 写入对象
	Save(ctx context.Context, bucket, objectName string, reader io.Reader, size int64, contentType string) error
	// Get 读取对象内容
	Get(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// Delete 删除对象，对象不存在时不报错
	Delete(ctx context.Context, bucket, objectName string) error
	// URI 对象的规范地址（gs:// 或 s3:// 或 file://）
	URI(bucket, objectName string) string
}

// StorageType 存储类型
type StorageType string

const (
	StorageTypeGCS   StorageType = "gcs"
	StorageTypeMinIO StorageType = "minio"
	StorageTypeLocal StorageType = "local"
)

// New 按配置创建存储后端
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch StorageType(cfg.Storage.Type) {
	case StorageTypeMinIO:
		return NewMinIOStorage(&MinIOConfig{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		})
	case StorageTypeLocal:
		return NewLocalStorage(cfg.Storage.LocalBasePath)
	default:
		return NewGCSStorage(ctx)
	}
}
