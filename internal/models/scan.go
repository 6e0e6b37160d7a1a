package models

import (
	"time"
)

// CandidateFile 候选文件: path + in-memory content submitted for one run.
// Owned exclusively by the pipeline for the duration of the run.
type CandidateFile struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Content  []byte `json:"content"`
}

// HashedFile is a CandidateFile plus its computed digest. Content is not
// retained past hashing.
type HashedFile struct {
	Path     string `json:"path"`
	Hash     string `json:"hash"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// ProcessingError records a single per-file failure. Never mutated after
// creation.
type ProcessingError struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// DuplicateGroup 重复文件组: all files sharing one content hash, 2+ members.
// Files keeps first-seen input order; the first member is conventionally the
// one to keep.
type DuplicateGroup struct {
	ID    string       `json:"id"`
	Hash  string       `json:"hash"`
	Size  int64        `json:"size"`
	Files []HashedFile `json:"files"`
}

// RunState tracks a single pipeline invocation.
type RunState string

const (
	RunStateIdle       RunState = "idle"
	RunStateProcessing RunState = "processing"
	RunStateDone       RunState = "done"
	RunStateErrored    RunState = "errored"
)

type ScanTask struct {
	ID         string            `json:"id"`
	Status     ScanStatus        `json:"status"`
	Type       string            `json:"type"`
	Priority   int               `json:"priority"`
	Progress   float64           `json:"progress"`
	FilesTotal int               `json:"filesTotal"`
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt,omitempty"`
}

type ScanStatus string

const (
	StatusPending   ScanStatus = "pending"
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "cancelled"
)

// ScanReport is the stored terminal artifact of a scan. A completed report
// with a non-empty Errors set is a partial success, distinguishable from a
// clean completion and from a fatal failure (no report at all).
type ScanReport struct {
	TaskID         string            `json:"taskId"`
	Status         string            `json:"status"`
	Groups         []DuplicateGroup  `json:"groups"`
	Errors         []ProcessingError `json:"errors,omitempty"`
	FilesScanned   int               `json:"filesScanned"`
	DuplicateCount int               `json:"duplicateCount"`
	WastedBytes    int64             `json:"wastedBytes"`
	StartedAt      time.Time         `json:"startedAt"`
	FinishedAt     time.Time         `json:"finishedAt"`
}

// TotalDuplicates returns the number of files that could be removed, one
// keeper per group.
func (r *ScanReport) TotalDuplicates() int {
	total := 0
	for _, g := range r.Groups {
		total += len(g.Files) - 1
	}
	return total
}
