package pipeline

import (
	"github.com/feichai0017/dedup-scanner/internal/models"
)

// collector accumulates per-file failures in encounter order without halting
// the run. At most one entry is recorded per failing file; the pipeline never
// retries hashing.
type collector struct {
	errors []models.ProcessingError
}

func newCollector() *collector {
	return &collector{}
}

func (c *collector) record(path, name, message string) {
	c.errors = append(c.errors, models.ProcessingError{
		Path:  path,
		Name:  name,
		Error: message,
	})
}

func (c *collector) all() []models.ProcessingError {
	return c.errors
}
