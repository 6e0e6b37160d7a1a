package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/feichai0017/dedup-scanner/internal/models"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
)

// DefaultChunkSize is the number of files hashed between cooperative yields.
// Grouping results are identical regardless of chunk size; it only bounds how
// long the run goes without yielding.
const DefaultChunkSize = 50

var (
	// ErrNilFileList marks a malformed start request with no file list at
	// all. An empty list is valid and completes immediately.
	ErrNilFileList = errors.New("start request has no file list")
	// ErrAlreadyProcessing is returned when a run is started while another
	// is still processing on the same instance.
	ErrAlreadyProcessing = errors.New("a scan is already processing on this pipeline")
)

// Pipeline hashes a batch of candidate files chunk by chunk, groups files by
// digest, and reports progress, per-file errors and the terminal result over
// a channel of events. One invocation runs on a single goroutine; all run
// state is owned by that goroutine and only serializable event values cross
// the boundary.
type Pipeline struct {
	chunkSize int
	logger    logger.Logger
	running   atomic.Bool
}

// Option 配置选项
type Option func(*Pipeline)

// WithChunkSize overrides the number of files processed between yields.
func WithChunkSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

func New(log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		chunkSize: DefaultChunkSize,
		logger:    log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process starts exactly one run over files and returns the event channel for
// it. The channel is closed after the terminal event, or without one if ctx
// is cancelled mid-run; cancellation is abrupt and delivers no partial
// groups. Starting a run while another is processing is caller misuse and
// fails synchronously.
func (p *Pipeline) Process(ctx context.Context, files []models.CandidateFile) (<-chan Event, error) {
	if !p.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyProcessing
	}

	rep := newReporter()
	go p.run(ctx, files, rep)
	return rep.events(), nil
}

func (p *Pipeline) run(ctx context.Context, files []models.CandidateFile, rep *reporter) {
	defer rep.close()
	defer p.running.Store(false)

	if files == nil {
		p.logger.Error("Rejecting malformed scan request", logger.Error(ErrNilFileList))
		rep.fatal(ctx, ErrNilFileList.Error())
		return
	}

	total := len(files)
	p.logger.Info("Starting duplicate scan",
		logger.Int("fileCount", total),
		logger.Int("chunkSize", p.chunkSize),
	)

	rep.start()
	groups := newGrouper()
	failures := newCollector()

	for start := 0; start < total; start += p.chunkSize {
		if ctx.Err() != nil {
			p.logger.Warn("Scan cancelled between chunks", logger.Int("processed", start))
			return
		}

		end := start + p.chunkSize
		if end > total {
			end = total
		}

		for i := start; i < end; i++ {
			file := files[i]
			if !rep.progress(ctx, i+1, total, file.Name) {
				return
			}

			hash, err := Digest(file.Content)
			if err != nil {
				p.logger.Warn("Failed to hash file",
					logger.String("path", file.Path),
					logger.Error(err),
				)
				failures.record(file.Path, file.Name, fmt.Sprintf("hash computation failed: %v", err))
				continue
			}

			groups.add(models.HashedFile{
				Path:     file.Path,
				Hash:     hash,
				Name:     file.Name,
				Size:     file.Size,
				MimeType: file.MimeType,
			})
		}

		p.logger.Debug("Chunk complete",
			logger.Int("processed", end),
			logger.Int("total", total),
		)

		// Hand the scheduler a chance to run other goroutines before the
		// next chunk. Fairness, not parallelism.
		runtime.Gosched()
	}

	if errs := failures.all(); len(errs) > 0 {
		if !rep.errors(ctx, errs) {
			return
		}
	}

	result := groups.finalize()
	if !rep.completed(ctx, result) {
		return
	}

	p.logger.Info("Duplicate scan completed",
		logger.Int("fileCount", total),
		logger.Int("groupCount", len(result)),
		logger.Int("errorCount", len(failures.all())),
	)
}
