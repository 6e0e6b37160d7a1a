package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/dedup-scanner/internal/models"
)

// drain consumes every event the reporter emits until close.
func drain(rep *reporter) <-chan []Event {
	out := make(chan []Event, 1)
	go func() {
		var events []Event
		for ev := range rep.events() {
			events = append(events, ev)
		}
		out <- events
	}()
	return out
}

func TestReporterStateMachine(t *testing.T) {
	ctx := context.Background()
	rep := newReporter()
	done := drain(rep)

	assert.Equal(t, models.RunStateIdle, rep.state)

	rep.start()
	assert.Equal(t, models.RunStateProcessing, rep.state)

	require.True(t, rep.progress(ctx, 1, 1, "a.txt"))
	require.True(t, rep.completed(ctx, []models.DuplicateGroup{}))
	assert.Equal(t, models.RunStateDone, rep.state)

	// Terminal state admits no further emissions.
	assert.False(t, rep.progress(ctx, 2, 2, "b.txt"))
	assert.False(t, rep.errors(ctx, []models.ProcessingError{{Path: "b.txt"}}))
	assert.False(t, rep.completed(ctx, nil))
	assert.False(t, rep.fatal(ctx, "too late"))

	rep.close()
	events := <-done
	require.Len(t, events, 2)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, EventCompleted, events[1].Type)
}

func TestReporterFatalBeforeStart(t *testing.T) {
	ctx := context.Background()
	rep := newReporter()
	done := drain(rep)

	require.True(t, rep.fatal(ctx, "no file list"))
	assert.Equal(t, models.RunStateErrored, rep.state)
	assert.False(t, rep.completed(ctx, nil))

	rep.close()
	events := <-done
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, "no file list", events[0].Error)
}

func TestReporterSendAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := newReporter()
	rep.start()

	// No receiver needed: a cancelled context short-circuits the send.
	assert.False(t, rep.progress(ctx, 1, 1, "a.txt"))
	rep.close()
}
