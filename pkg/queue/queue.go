// pkg/queue/queue.go
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	cfg "github.com/feichai0017/dedup-scanner/config"
)

// TaskTypeScanProcess 任务类型
const TaskTypeScanProcess = "scan:process"

// Queue 接口定义
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *TaskStatus) error
}

// FileRef points at one uploaded candidate file in object storage. Order in
// Task.Files is the scan's input order and determines grouping order.
type FileRef struct {
	Key  string `json:"key"`
	Path string `json:"path"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Task 定义扫描任务结构
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Files     []FileRef         `json:"files"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// TaskStatus 定义任务状态
type TaskStatus struct {
	TaskID      string    `json:"taskId"`
	Status      string    `json:"status"`
	Progress    float64   `json:"progress"`
	FilesTotal  int       `json:"filesTotal"`
	FilesHashed int       `json:"filesHashed"`
	GroupCount  int       `json:"groupCount"`
	ErrorCount  int       `json:"errorCount"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt,omitempty"`
}

// AsynqQueue 实现
type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
	timeout   time.Duration
}

// QueueConfig 定义队列配置
type QueueConfig struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ProcessTimeout time.Duration
}

// GetQueue 获取队列实例
func GetQueue() (*AsynqQueue, error) {
	rc := cfg.GetRedisConfig()
	return NewAsynqQueue(&QueueConfig{
		RedisAddr:      rc.Addr,
		RedisPassword:  rc.Password,
		RedisDB:        rc.DB,
		ProcessTimeout: 30 * time.Minute,
	})
}

// NewAsynqQueue 创建新的队列实例
func NewAsynqQueue(qc *QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     qc.RedisAddr,
		Password: qc.RedisPassword,
		DB:       qc.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     qc.RedisAddr,
		Password: qc.RedisPassword,
		DB:       qc.RedisDB,
	})

	timeout := qc.ProcessTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
		timeout:   timeout,
	}, nil
}

// Enqueue 将扫描任务加入队列. Scan tasks are never retried automatically; a
// failed run is terminal and resubmission is the caller's policy.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	opts := []asynq.Option{
		asynq.MaxRetry(0),
		asynq.Timeout(q.timeout),
		asynq.TaskID(task.ID),
	}

	switch task.Priority {
	case 1:
		opts = append(opts, asynq.Queue("critical"))
	case 2:
		opts = append(opts, asynq.Queue("default"))
	default:
		opts = append(opts, asynq.Queue("low"))
	}

	t := asynq.NewTask(task.Type, payload, opts...)
	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	task.ID = info.ID

	return nil
}

// GetTaskStatus 获取任务状态
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	// Saved statuses win over queue inspection: they carry scan progress the
	// inspector knows nothing about.
	key := statusKey(taskID)
	data, err := q.redis.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	if err == nil {
		var status TaskStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	// Fall back to the queues.
	queues := []string{"critical", "default", "low"}
	var lastErr error

	for _, queueName := range queues {
		info, err := q.inspector.GetTaskInfo(queueName, taskID)
		if err == nil {
			return convertAsynqStatus(info), nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("task not found in any queue: %w", lastErr)
}

// CancelTask 取消任务. Cancellation is abrupt: queued work is deleted and no
// further status or report is produced for the task.
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	queues := []string{"critical", "default", "low"}
	var lastErr error

	for _, queueName := range queues {
		err := q.inspector.DeleteTask(queueName, taskID)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed to cancel task: %w", lastErr)
}

// SaveStatus 保存任务状态
func (q *AsynqQueue) SaveStatus(ctx context.Context, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	if err := q.redis.Set(ctx, statusKey(status.TaskID), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	return nil
}

func statusKey(taskID string) string {
	return fmt.Sprintf("scan_status:%s", taskID)
}

// convertAsynqStatus 将 asynq 状态转换为 TaskStatus
func convertAsynqStatus(info *asynq.TaskInfo) *TaskStatus {
	status := &TaskStatus{
		TaskID:    info.ID,
		StartedAt: info.NextProcessAt,
	}

	switch info.State {
	case asynq.TaskStatePending:
		status.Status = "pending"
	case asynq.TaskStateActive:
		status.Status = "running"
	case asynq.TaskStateCompleted:
		status.Status = "completed"
		status.Progress = 1.0
		status.FinishedAt = info.CompletedAt
	default:
		status.Status = "failed"
		status.Error = info.LastErr
	}

	return status
}
