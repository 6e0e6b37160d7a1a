package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/dedup-scanner/pkg/logger"
	"github.com/feichai0017/dedup-scanner/pkg/storage/minio"
	"github.com/feichai0017/dedup-scanner/pkg/storage/s3"
)

// StorageType 定义存储类型
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage holds raw candidate uploads keyed by task, and the scan reports
// produced by the worker.
type Storage interface {
	// Store 存储对象
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get 获取对象
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete 删除对象
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold. Used by
	// the retention sweep over expired uploads and reports.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage 创建存储实例的工厂方法
func NewStorage(storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(log)
	case StorageTypeMinio:
		return minio.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
