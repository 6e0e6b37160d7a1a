package pipeline

import (
	"github.com/feichai0017/dedup-scanner/internal/models"
)

// EventType 事件类型
type EventType string

const (
	// EventProgress is emitted once per file, in strict input order, before
	// the file is hashed.
	EventProgress EventType = "progress"
	// EventErrors carries the full set of per-file failures, emitted at most
	// once, immediately before EventCompleted.
	EventErrors EventType = "errors"
	// EventCompleted is the success terminal, carrying the finalized groups.
	EventCompleted EventType = "completed"
	// EventError is the fatal terminal, mutually exclusive with
	// EventCompleted. Per-file failures never take this path.
	EventError EventType = "error"
)

// Event is a single outbound message from the pipeline to its caller. Events
// carry only owned, serializable values; the caller must not assume shared
// memory with pipeline state.
type Event struct {
	Type     EventType                `json:"type"`
	Index    int                      `json:"index,omitempty"`
	Total    int                      `json:"total,omitempty"`
	FileName string                   `json:"fileName,omitempty"`
	Errors   []models.ProcessingError `json:"errors,omitempty"`
	Groups   []models.DuplicateGroup  `json:"groups,omitempty"`
	Error    string                   `json:"error,omitempty"`
}
