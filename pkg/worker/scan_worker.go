package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/dedup-scanner/internal/service/scan"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
	"github.com/feichai0017/dedup-scanner/pkg/queue"
)

// ScanWorker consumes scan:process tasks and drives the hashing pipeline
// through the scan service. Each task runs isolated from the API process;
// the only communication back to callers is the redis status record and the
// stored report.
type ScanWorker struct {
	BaseWorker
	scanService scan.ScanProcessor
}

func NewScanWorker(wc *Config, scanService scan.ScanProcessor, log logger.Logger) (*ScanWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: wc.RedisAddr, Password: wc.RedisPassword, DB: wc.RedisDB},
		asynq.Config{
			Concurrency: wc.Concurrency,
			Queues:      wc.Queues,
		},
	)

	w := &ScanWorker{
		BaseWorker: BaseWorker{
			server:   server,
			mux:      asynq.NewServeMux(),
			logger:   log,
			stopChan: make(chan struct{}),
		},
		scanService: scanService,
	}

	w.registerHandlers()
	return w, nil
}

func (w *ScanWorker) registerHandlers() {
	w.mux.HandleFunc(queue.TaskTypeScanProcess, w.handleScanProcess)
}

func (w *ScanWorker) handleScanProcess(ctx context.Context, t *asynq.Task) error {
	var task queue.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		w.logger.Error("Failed to unmarshal scan task",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal scan task: %w", err)
	}

	w.logger.Info("Processing scan task",
		logger.String("taskId", task.ID),
		logger.Int("fileCount", len(task.Files)),
	)

	if task.ID == "" || task.Files == nil {
		w.logger.Error("Invalid scan task data",
			logger.String("taskId", task.ID),
		)
		return fmt.Errorf("invalid scan task data: missing required fields")
	}

	if err := w.scanService.HandleScan(ctx, &task); err != nil {
		w.logger.Error("Scan task failed",
			logger.String("taskId", task.ID),
			logger.Error(err),
		)
		return err
	}

	return nil
}

func (w *ScanWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}
