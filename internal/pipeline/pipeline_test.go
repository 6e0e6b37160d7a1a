package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/dedup-scanner/internal/models"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
)

func candidate(path string, content []byte) models.CandidateFile {
	return models.CandidateFile{
		Path:     path,
		Name:     path,
		Size:     int64(len(content)),
		MimeType: "application/octet-stream",
		Content:  content,
	}
}

func runToCompletion(t *testing.T, p *Pipeline, files []models.CandidateFile) []Event {
	t.Helper()

	events, err := p.Process(context.Background(), files)
	require.NoError(t, err)

	var collected []Event
	for ev := range events {
		collected = append(collected, ev)
	}
	return collected
}

func terminalOf(t *testing.T, events []Event) Event {
	t.Helper()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

func groupsOf(t *testing.T, events []Event) []models.DuplicateGroup {
	t.Helper()
	last := terminalOf(t, events)
	require.Equal(t, EventCompleted, last.Type)
	return last.Groups
}

func TestPipelineGroupsDuplicates(t *testing.T) {
	p := New(logger.NewTestLogger())
	files := []models.CandidateFile{
		candidate("a.jpg", []byte("ABC")),
		candidate("b.jpg", []byte("ABC")),
		candidate("c.jpg", []byte("ABC")),
		candidate("d.jpg", []byte("XYZ")),
	}

	events := runToCompletion(t, p, files)
	groups := groupsOf(t, events)

	require.Len(t, groups, 1)
	assert.Equal(t, "group-0", groups[0].ID)
	require.Len(t, groups[0].Files, 3)
	assert.Equal(t, "a.jpg", groups[0].Files[0].Path)
	assert.Equal(t, "b.jpg", groups[0].Files[1].Path)
	assert.Equal(t, "c.jpg", groups[0].Files[2].Path)

	// d.jpg appears in no group and no error.
	for _, ev := range events {
		assert.NotEqual(t, EventErrors, ev.Type)
	}
}

func TestPipelineIsolatesPerFileFailures(t *testing.T) {
	p := New(logger.NewTestLogger())
	files := []models.CandidateFile{
		candidate("good.txt", []byte("hello")),
		{Path: "bad.txt", Name: "bad.txt", Size: 5}, // nil content
	}

	events := runToCompletion(t, p, files)

	// progress, progress, errors, completed — errors strictly before the
	// terminal event.
	require.Len(t, events, 4)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, EventProgress, events[1].Type)
	assert.Equal(t, EventErrors, events[2].Type)
	assert.Equal(t, EventCompleted, events[3].Type)

	require.Len(t, events[2].Errors, 1)
	assert.Equal(t, "bad.txt", events[2].Errors[0].Path)
	assert.Contains(t, events[2].Errors[0].Error, "hash computation failed")

	// Only one readable file: no duplicates.
	assert.Empty(t, events[3].Groups)
}

func TestPipelineChunkSizeInvariance(t *testing.T) {
	// 100 files alternating between two contents: two groups of 50 no
	// matter how the input is chunked.
	var files []models.CandidateFile
	for i := 0; i < 100; i++ {
		content := []byte("even content")
		if i%2 == 1 {
			content = []byte("odd content")
		}
		files = append(files, candidate(fmt.Sprintf("file-%03d.txt", i), content))
	}

	var results [][]models.DuplicateGroup
	for _, chunkSize := range []int{50, 10, 7, 1, 1000} {
		p := New(logger.NewTestLogger(), WithChunkSize(chunkSize))
		events := runToCompletion(t, p, files)
		results = append(results, groupsOf(t, events))
	}

	for _, groups := range results {
		require.Len(t, groups, 2)
		assert.Len(t, groups[0].Files, 50)
		assert.Len(t, groups[1].Files, 50)
	}
	for _, groups := range results[1:] {
		assert.Equal(t, results[0], groups)
	}
}

func TestPipelineProgressMonotonic(t *testing.T) {
	p := New(logger.NewTestLogger(), WithChunkSize(3))
	var files []models.CandidateFile
	for i := 0; i < 10; i++ {
		files = append(files, candidate(fmt.Sprintf("f%d", i), []byte{byte(i)}))
	}

	events := runToCompletion(t, p, files)

	var indexes []int
	for _, ev := range events {
		if ev.Type == EventProgress {
			assert.Equal(t, 10, ev.Total)
			indexes = append(indexes, ev.Index)
		}
	}

	require.Len(t, indexes, 10)
	for i, idx := range indexes {
		assert.Equal(t, i+1, idx)
	}
}

func TestPipelineExhaustiveAccounting(t *testing.T) {
	p := New(logger.NewTestLogger(), WithChunkSize(4))
	files := []models.CandidateFile{
		candidate("dup1.txt", []byte("same")),
		{Path: "broken1.txt", Name: "broken1.txt"},
		candidate("unique1.txt", []byte("only once")),
		candidate("dup2.txt", []byte("same")),
		{Path: "broken2.txt", Name: "broken2.txt"},
		candidate("unique2.txt", []byte("also once")),
	}

	events := runToCompletion(t, p, files)

	grouped := map[string]bool{}
	failed := map[string]bool{}
	for _, ev := range events {
		switch ev.Type {
		case EventErrors:
			for _, e := range ev.Errors {
				failed[e.Path] = true
			}
		case EventCompleted:
			for _, g := range ev.Groups {
				for _, f := range g.Files {
					grouped[f.Path] = true
				}
			}
		}
	}

	// Grouped, failed, and singleton sets are pairwise disjoint and cover
	// the input exactly.
	assert.Equal(t, map[string]bool{"dup1.txt": true, "dup2.txt": true}, grouped)
	assert.Equal(t, map[string]bool{"broken1.txt": true, "broken2.txt": true}, failed)
	for path := range grouped {
		assert.False(t, failed[path])
	}
	singletons := 0
	for _, f := range files {
		if !grouped[f.Path] && !failed[f.Path] {
			singletons++
		}
	}
	assert.Equal(t, 2, singletons)
}

func TestPipelineTerminalExclusivity(t *testing.T) {
	p := New(logger.NewTestLogger())
	files := []models.CandidateFile{
		candidate("a", []byte("x")),
		candidate("b", []byte("x")),
	}

	events := runToCompletion(t, p, files)

	terminals := 0
	for i, ev := range events {
		if ev.Type == EventCompleted || ev.Type == EventError {
			terminals++
			assert.Equal(t, len(events)-1, i, "terminal event must be last")
		}
	}
	assert.Equal(t, 1, terminals)
}

func TestPipelineEmptyInput(t *testing.T) {
	p := New(logger.NewTestLogger())

	events := runToCompletion(t, p, []models.CandidateFile{})

	require.Len(t, events, 1)
	assert.Equal(t, EventCompleted, events[0].Type)
	assert.Empty(t, events[0].Groups)
}

func TestPipelineNilFileListIsFatal(t *testing.T) {
	p := New(logger.NewTestLogger())

	events, err := p.Process(context.Background(), nil)
	require.NoError(t, err)

	var collected []Event
	for ev := range events {
		collected = append(collected, ev)
	}

	require.Len(t, collected, 1)
	assert.Equal(t, EventError, collected[0].Type)
	assert.Equal(t, ErrNilFileList.Error(), collected[0].Error)
}

func TestPipelineCancellationIsAbrupt(t *testing.T) {
	p := New(logger.NewTestLogger(), WithChunkSize(1))
	var files []models.CandidateFile
	for i := 0; i < 10; i++ {
		files = append(files, candidate(fmt.Sprintf("f%d", i), []byte{byte(i)}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := p.Process(ctx, files)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		ev, ok := <-events
		require.True(t, ok)
		require.Equal(t, EventProgress, ev.Type)
	}

	cancel()
	// Give the run goroutine time to observe cancellation while nobody is
	// receiving; it must exit without emitting anything further.
	time.Sleep(50 * time.Millisecond)

	var trailing []Event
	for ev := range events {
		trailing = append(trailing, ev)
	}
	assert.Empty(t, trailing)
}

func TestPipelineRejectsConcurrentRun(t *testing.T) {
	p := New(logger.NewTestLogger(), WithChunkSize(1))
	files := []models.CandidateFile{
		candidate("a", []byte("x")),
		candidate("b", []byte("y")),
	}

	events, err := p.Process(context.Background(), files)
	require.NoError(t, err)

	// Second start while the first run is still processing.
	_, err = p.Process(context.Background(), files)
	assert.ErrorIs(t, err, ErrAlreadyProcessing)

	for range events {
	}

	// After the run finishes the instance accepts a fresh invocation.
	events, err = p.Process(context.Background(), files)
	require.NoError(t, err)
	for range events {
	}
}

func TestPipelineDigestStableAcrossRuns(t *testing.T) {
	files := []models.CandidateFile{
		candidate("a", []byte("stable bytes")),
		candidate("b", []byte("stable bytes")),
	}

	first := groupsOf(t, runToCompletion(t, New(logger.NewTestLogger()), files))
	second := groupsOf(t, runToCompletion(t, New(logger.NewTestLogger()), files))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Hash, second[0].Hash)
}

func TestEventWireFormat(t *testing.T) {
	data, err := json.Marshal(Event{
		Type:     EventProgress,
		Index:    3,
		Total:    10,
		FileName: "photo.jpg",
	})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "progress", decoded["type"])
	assert.Equal(t, float64(3), decoded["index"])
	assert.Equal(t, float64(10), decoded["total"])
	assert.Equal(t, "photo.jpg", decoded["fileName"])
}
