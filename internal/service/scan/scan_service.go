package scan

import (
	"context"
	"mime/multipart"

	"github.com/feichai0017/dedup-scanner/internal/models"
	"github.com/feichai0017/dedup-scanner/pkg/queue"
)

type ScanProcessor interface {
	SubmitBatch(ctx context.Context, files []*multipart.FileHeader) (*models.ScanTask, error)
	GetScanStatus(ctx context.Context, taskID string) (*models.ScanTask, error)
	GetScanReport(ctx context.Context, taskID string) (*models.ScanReport, error)
	HandleScan(ctx context.Context, task *queue.Task) error
	CancelScan(ctx context.Context, taskID string) error
	CleanupExpired(ctx context.Context) error
}
