package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	cfg "github.com/feichai0017/dedup-scanner/config"
	"github.com/feichai0017/dedup-scanner/internal/models"
	"github.com/feichai0017/dedup-scanner/internal/pipeline"
	"github.com/feichai0017/dedup-scanner/internal/utils/validator"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
	"github.com/feichai0017/dedup-scanner/pkg/queue"
	"github.com/feichai0017/dedup-scanner/pkg/storage"
)

type ScanService struct {
	queue     queue.Queue
	storage   storage.Storage
	validator *validator.BatchValidator
	logger    logger.Logger
	config    *ServiceConfig
}

type ServiceConfig struct {
	ChunkSize       int
	MaxFileSize     int64
	MaxBatchSize    int
	QueuePriority   int
	RetentionPeriod time.Duration
}

func NewService(
	q queue.Queue,
	store storage.Storage,
	log logger.Logger,
	sc *ServiceConfig,
) ScanProcessor {
	if sc == nil {
		sc = &ServiceConfig{
			ChunkSize:       pipeline.DefaultChunkSize,
			MaxFileSize:     50 * 1024 * 1024, // 50MB
			MaxBatchSize:    10000,
			RetentionPeriod: 24 * time.Hour,
		}
	}
	if sc.ChunkSize <= 0 {
		sc.ChunkSize = pipeline.DefaultChunkSize
	}

	return &ScanService{
		queue:   q,
		storage: store,
		validator: validator.NewBatchValidator(log, &validator.ValidatorConfig{
			MaxFileSize:  sc.MaxFileSize,
			MaxBatchSize: sc.MaxBatchSize,
		}),
		logger: log,
		config: sc,
	}
}

func GetService(log logger.Logger) (ScanProcessor, error) {
	scanCfg := cfg.GetScanConfig()

	store, err := storage.NewStorage(storage.StorageType(scanCfg.StorageBackend), log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	q, err := queue.GetQueue()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	sc := &ServiceConfig{
		ChunkSize:       scanCfg.ChunkSize,
		MaxFileSize:     scanCfg.MaxFileSize,
		MaxBatchSize:    scanCfg.MaxBatchSize,
		RetentionPeriod: scanCfg.RetentionPeriod,
	}

	return NewService(q, store, log, sc), nil
}

// SubmitBatch 提交一批候选文件进行扫描
func (s *ScanService) SubmitBatch(ctx context.Context, files []*multipart.FileHeader) (*models.ScanTask, error) {
	s.logger.Info("Submitting scan batch", logger.Int("fileCount", len(files)))

	if result := s.validator.ValidateBatch(files); !result.IsValid {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, e.Message)
		}
		err := fmt.Errorf("invalid scan batch: %s", strings.Join(msgs, "; "))
		s.logger.Error("Batch validation failed", logger.Error(err))
		return nil, err
	}

	taskID := uuid.New().String()
	refs := make([]queue.FileRef, len(files))

	// Store raw uploads concurrently; the indexed slice keeps input order,
	// which determines grouping order downstream.
	g, gctx := errgroup.WithContext(ctx)
	for i, header := range files {
		i, header := i, header
		g.Go(func() error {
			f, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", header.Filename, err)
			}
			defer f.Close()

			key, err := s.storage.Store(gctx, f, uploadKey(taskID, i))
			if err != nil {
				return fmt.Errorf("failed to store file %s: %w", header.Filename, err)
			}

			refs[i] = queue.FileRef{
				Key:  key,
				Path: header.Filename,
				Name: filepath.Base(header.Filename),
				Size: header.Size,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	task := &models.ScanTask{
		ID:         taskID,
		Status:     models.StatusPending,
		Type:       queue.TaskTypeScanProcess,
		Priority:   s.config.QueuePriority,
		FilesTotal: len(files),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		Metadata: map[string]string{
			"fileCount": fmt.Sprintf("%d", len(files)),
		},
	}

	queueTask := &queue.Task{
		ID:        taskID,
		Type:      queue.TaskTypeScanProcess,
		Priority:  s.config.QueuePriority,
		Files:     refs,
		Metadata:  task.Metadata,
		CreatedAt: task.CreatedAt,
	}

	if err := s.queue.Enqueue(ctx, queueTask); err != nil {
		s.logger.Error("Failed to enqueue scan task",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to enqueue scan task: %w", err)
	}

	initialStatus := &queue.TaskStatus{
		TaskID:     taskID,
		Status:     string(models.StatusPending),
		FilesTotal: len(files),
		StartedAt:  time.Now(),
	}
	if err := s.queue.SaveStatus(ctx, initialStatus); err != nil {
		s.logger.Error("Failed to save initial status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	s.logger.Info("Scan task created",
		logger.String("taskId", taskID),
		logger.Int("fileCount", len(files)),
	)

	return task, nil
}

// HandleScan 在 worker 上执行一次扫描: fetch candidate contents, run the
// hashing pipeline, translate its events into status updates, and store the
// final report.
func (s *ScanService) HandleScan(ctx context.Context, task *queue.Task) error {
	if task == nil || task.Files == nil {
		return fmt.Errorf("invalid task: missing required data")
	}

	startedAt := time.Now()
	total := len(task.Files)

	s.logger.Info("Handling scan task",
		logger.String("taskId", task.ID),
		logger.Int("fileCount", total),
	)

	candidates, err := s.fetchCandidates(ctx, task)
	if err != nil {
		return err
	}

	pl := pipeline.New(s.logger, pipeline.WithChunkSize(s.config.ChunkSize))
	events, err := pl.Process(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	var (
		groups        []models.DuplicateGroup
		perFileErrors []models.ProcessingError
		completed     bool
	)

	for ev := range events {
		switch ev.Type {
		case pipeline.EventProgress:
			// Persist progress at chunk boundaries only; per-file writes
			// would hammer redis on large batches.
			if ev.Index%s.config.ChunkSize == 0 || ev.Index == ev.Total {
				s.saveRunningStatus(ctx, task.ID, ev.Index, ev.Total)
			}
		case pipeline.EventErrors:
			perFileErrors = ev.Errors
		case pipeline.EventCompleted:
			groups = ev.Groups
			completed = true
		case pipeline.EventError:
			s.saveFailedStatus(ctx, task.ID, total, ev.Error)
			return fmt.Errorf("scan pipeline failed: %s", ev.Error)
		}
	}

	if !completed {
		// Channel closed without a terminal event: the run was cancelled.
		s.logger.Warn("Scan cancelled before completion", logger.String("taskId", task.ID))
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("scan aborted before completion")
	}

	report := buildReport(task.ID, groups, perFileErrors, total, startedAt, time.Now())

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if _, err := s.storage.Store(ctx, bytes.NewReader(data), reportKey(task.ID)); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	finalStatus := &queue.TaskStatus{
		TaskID:      task.ID,
		Status:      string(models.StatusCompleted),
		Progress:    1.0,
		FilesTotal:  total,
		FilesHashed: total,
		GroupCount:  len(groups),
		ErrorCount:  len(perFileErrors),
		StartedAt:   startedAt,
		FinishedAt:  time.Now(),
	}
	if err := s.queue.SaveStatus(ctx, finalStatus); err != nil {
		s.logger.Error("Failed to save final status",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
	}

	s.logger.Info("Scan task completed",
		logger.String("taskId", task.ID),
		logger.Int("groupCount", len(groups)),
		logger.Int("errorCount", len(perFileErrors)),
		logger.Int64("wastedBytes", report.WastedBytes),
	)

	return nil
}

// fetchCandidates pulls uploaded contents back from storage. A file that
// cannot be fetched becomes a candidate with no content, so the pipeline
// records it as a per-file error and the batch accounting stays exhaustive.
func (s *ScanService) fetchCandidates(ctx context.Context, task *queue.Task) ([]models.CandidateFile, error) {
	candidates := make([]models.CandidateFile, len(task.Files))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range task.Files {
		i, ref := i, ref
		g.Go(func() error {
			candidates[i] = models.CandidateFile{
				Path: ref.Path,
				Name: ref.Name,
				Size: ref.Size,
			}

			rc, err := s.storage.Get(gctx, ref.Key)
			if err != nil {
				s.logger.Warn("Failed to fetch candidate content",
					logger.String("taskId", task.ID),
					logger.String("key", ref.Key),
					logger.Error(err),
				)
				return nil
			}
			defer rc.Close()

			data, err := io.ReadAll(rc)
			if err != nil {
				s.logger.Warn("Failed to read candidate content",
					logger.String("taskId", task.ID),
					logger.String("key", ref.Key),
					logger.Error(err),
				)
				return nil
			}

			candidates[i].Size = int64(len(data))
			candidates[i].MimeType = mimetype.Detect(data).String()
			candidates[i].Content = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return candidates, nil
}

// GetScanStatus 获取扫描状态
func (s *ScanService) GetScanStatus(ctx context.Context, taskID string) (*models.ScanTask, error) {
	status, err := s.queue.GetTaskStatus(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task status: %w", err)
	}

	var taskStatus models.ScanStatus
	switch status.Status {
	case "pending":
		taskStatus = models.StatusPending
	case "running":
		taskStatus = models.StatusRunning
	case "completed":
		taskStatus = models.StatusCompleted
	case "failed":
		taskStatus = models.StatusFailed
	case "cancelled":
		taskStatus = models.StatusCancelled
	default:
		taskStatus = models.StatusPending
	}

	return &models.ScanTask{
		ID:         status.TaskID,
		Status:     taskStatus,
		Type:       queue.TaskTypeScanProcess,
		Progress:   status.Progress,
		FilesTotal: status.FilesTotal,
		Error:      status.Error,
		Metadata:   make(map[string]string),
		CreatedAt:  status.StartedAt,
		UpdatedAt:  status.FinishedAt,
	}, nil
}

// GetScanReport 获取扫描报告
func (s *ScanService) GetScanReport(ctx context.Context, taskID string) (*models.ScanReport, error) {
	status, err := s.GetScanStatus(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if status.Status != models.StatusCompleted {
		return nil, fmt.Errorf("scan is not completed: %s", status.Status)
	}

	reader, err := s.storage.Get(ctx, reportKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	defer reader.Close()

	var report models.ScanReport
	if err := json.NewDecoder(reader).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}

	return &report, nil
}

// CancelScan 取消扫描任务
func (s *ScanService) CancelScan(ctx context.Context, taskID string) error {
	if err := s.queue.CancelTask(ctx, taskID); err != nil {
		return fmt.Errorf("failed to cancel scan: %w", err)
	}

	cancelled := &queue.TaskStatus{
		TaskID:     taskID,
		Status:     string(models.StatusCancelled),
		FinishedAt: time.Now(),
	}
	if err := s.queue.SaveStatus(ctx, cancelled); err != nil {
		s.logger.Error("Failed to save cancelled status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}

	s.logger.Info("Scan cancelled", logger.String("taskId", taskID))

	return nil
}

// CleanupExpired 清理过期的上传和报告
func (s *ScanService) CleanupExpired(ctx context.Context) error {
	threshold := time.Now().Add(-s.config.RetentionPeriod)

	if err := s.storage.CleanupBefore(ctx, threshold); err != nil {
		return fmt.Errorf("failed to cleanup storage: %w", err)
	}

	s.logger.Info("Completed expired scan cleanup",
		logger.Time("threshold", threshold),
	)

	return nil
}

func (s *ScanService) saveRunningStatus(ctx context.Context, taskID string, hashed, total int) {
	progress := 0.0
	if total > 0 {
		progress = float64(hashed) / float64(total)
	}

	status := &queue.TaskStatus{
		TaskID:      taskID,
		Status:      string(models.StatusRunning),
		Progress:    progress,
		FilesTotal:  total,
		FilesHashed: hashed,
	}
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save running status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}
}

func (s *ScanService) saveFailedStatus(ctx context.Context, taskID string, total int, message string) {
	status := &queue.TaskStatus{
		TaskID:     taskID,
		Status:     string(models.StatusFailed),
		FilesTotal: total,
		Error:      message,
		FinishedAt: time.Now(),
	}
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		s.logger.Error("Failed to save failed status",
			logger.String("taskId", taskID),
			logger.Error(err),
		)
	}
}
