package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRoundTripsThroughJSON(t *testing.T) {
	task := &Task{
		ID:   "scan-123",
		Type: TaskTypeScanProcess,
		Files: []FileRef{
			{Key: "upload/scan-123/000000", Path: "dir/a.txt", Name: "a.txt", Size: 12},
			{Key: "upload/scan-123/000001", Path: "dir/b.txt", Name: "b.txt", Size: 12},
		},
		Metadata:  map[string]string{"fileCount": "2"},
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)

	var decoded Task
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, task.ID, decoded.ID)
	require.Len(t, decoded.Files, 2)
	// Input order survives the queue; it determines grouping order.
	assert.Equal(t, "dir/a.txt", decoded.Files[0].Path)
	assert.Equal(t, "dir/b.txt", decoded.Files[1].Path)
}

func TestConvertAsynqStatus(t *testing.T) {
	finished := time.Now()

	tests := []struct {
		name     string
		info     *asynq.TaskInfo
		expected string
	}{
		{"pending", &asynq.TaskInfo{ID: "t1", State: asynq.TaskStatePending}, "pending"},
		{"active", &asynq.TaskInfo{ID: "t2", State: asynq.TaskStateActive}, "running"},
		{"completed", &asynq.TaskInfo{ID: "t3", State: asynq.TaskStateCompleted, CompletedAt: finished}, "completed"},
		{"retry maps to failed", &asynq.TaskInfo{ID: "t4", State: asynq.TaskStateRetry, LastErr: "boom"}, "failed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := convertAsynqStatus(tc.info)
			assert.Equal(t, tc.info.ID, status.TaskID)
			assert.Equal(t, tc.expected, status.Status)
		})
	}
}

func TestStatusKey(t *testing.T) {
	assert.Equal(t, "scan_status:abc", statusKey("abc"))
}
