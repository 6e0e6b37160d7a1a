package pipeline

import (
	"context"

	"github.com/feichai0017/dedup-scanner/internal/models"
)

// reporter owns one invocation's state machine and its outbound channel.
// Transitions: idle → processing → {done | errored}; there is no way back to
// idle, and nothing is emitted after a terminal event.
type reporter struct {
	ch    chan Event
	state models.RunState
}

func newReporter() *reporter {
	return &reporter{
		ch:    make(chan Event),
		state: models.RunStateIdle,
	}
}

func (r *reporter) events() <-chan Event {
	return r.ch
}

func (r *reporter) start() {
	r.state = models.RunStateProcessing
}

// send delivers one event to the caller. A false return means the run was
// cancelled; the caller of send must stop emitting immediately.
func (r *reporter) send(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case r.ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *reporter) progress(ctx context.Context, index, total int, fileName string) bool {
	if r.state != models.RunStateProcessing {
		return false
	}
	return r.send(ctx, Event{
		Type:     EventProgress,
		Index:    index,
		Total:    total,
		FileName: fileName,
	})
}

func (r *reporter) errors(ctx context.Context, errs []models.ProcessingError) bool {
	if r.state != models.RunStateProcessing {
		return false
	}
	return r.send(ctx, Event{Type: EventErrors, Errors: errs})
}

func (r *reporter) completed(ctx context.Context, groups []models.DuplicateGroup) bool {
	if r.state != models.RunStateProcessing {
		return false
	}
	if !r.send(ctx, Event{Type: EventCompleted, Groups: groups}) {
		return false
	}
	r.state = models.RunStateDone
	return true
}

func (r *reporter) fatal(ctx context.Context, message string) bool {
	if r.state == models.RunStateDone || r.state == models.RunStateErrored {
		return false
	}
	if !r.send(ctx, Event{Type: EventError, Error: message}) {
		return false
	}
	r.state = models.RunStateErrored
	return true
}

func (r *reporter) close() {
	close(r.ch)
}
