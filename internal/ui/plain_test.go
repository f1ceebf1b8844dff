package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_ProgressLines(t *testing.T) {
	// Given: a plain renderer
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))
	require.NoError(t, r.Start(context.Background()))

	// When: reporting a short indexing stage
	r.UpdateProgress(ProgressEvent{Stage: StageLoading, Message: "reading demo corpus"})
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: 1, Total: 2, Work: "First Epistle"})
	r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: 2, Total: 2, Work: "On the Incarnation"})

	// Then: each update is one tagged line
	out := buf.String()
	assert.Contains(t, out, "[LOAD] reading demo corpus\n")
	assert.Contains(t, out, "[INDEX] 1/2 - First Epistle\n")
	assert.Contains(t, out, "[INDEX] 2/2 - On the Incarnation\n")
}

func TestPlainRenderer_ThrottlesLargeStages(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	// When: reporting 100 chapters one by one
	for i := 1; i <= 100; i++ {
		r.UpdateProgress(ProgressEvent{Stage: StageIndexing, Current: i, Total: 100, Work: "City of God"})
	}

	// Then: only every fifth chapter is printed, and always the last
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 20)
	assert.Equal(t, "[INDEX] 100/100 - City of God", lines[len(lines)-1])
}

func TestPlainRenderer_Errors(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	r.AddError(ErrorEvent{Source: "bad.jsonl", Err: errors.New("line 3: missing author")})
	r.AddError(ErrorEvent{Err: errors.New("empty chapter skipped"), IsWarn: true})

	assert.Contains(t, buf.String(), "ERROR: bad.jsonl: line 3: missing author\n")
	assert.Contains(t, buf.String(), "WARN: empty chapter skipped\n")
}

func TestPlainRenderer_Complete(t *testing.T) {
	var buf bytes.Buffer
	r := NewPlainRenderer(NewConfig(&buf))

	// When: completing a run with stage timings
	r.Complete(CompletionStats{
		Documents: 3,
		Chapters:  5,
		Created:   4,
		Skipped:   1,
		Phrases:   120,
		Trigrams:  340,
		Duration:  1500 * time.Millisecond,
		Errors:    1,
		Stages:    StageTimings{Load: 10 * time.Millisecond, Index: time.Second},
	})
	require.NoError(t, r.Stop())

	// Then: the summary and breakdown are printed
	out := buf.String()
	assert.Contains(t, out, "Complete: 3 works, 5 chapters (4 new, 1 unchanged) in 1.5s (1 errors, 0 warnings)")
	assert.Contains(t, out, "Indexed: 120 phrases, 340 trigrams")
	assert.Contains(t, out, "Stage Breakdown:")
	assert.Contains(t, out, "(5.0 chapters/sec)")
	assert.NotContains(t, out, "Full-text:")
}

func TestNewRenderer_PlainForNonTTY(t *testing.T) {
	var buf bytes.Buffer

	r := NewRenderer(NewConfig(&buf, WithDataDir("/tmp/data")))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestStage_Names(t *testing.T) {
	assert.Equal(t, "Full-text", StageFullText.String())
	assert.Equal(t, "FTS", StageFullText.Icon())
	assert.Equal(t, "DONE", StageComplete.Icon())
	assert.Equal(t, "Unknown", Stage(42).String())
}
