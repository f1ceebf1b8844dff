package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Stages(t *testing.T) {
	// Given: a tracker in the indexing stage
	p := NewProgressTracker()
	p.SetStage(StageIndexing, 4)

	// When: chapters complete, one update arriving out of order
	p.Update(2, "Confessions")
	p.Update(1, "")
	st := p.Stats()

	// Then: progress never goes backwards
	assert.Equal(t, StageIndexing, st.Stage)
	assert.Equal(t, 2, st.Current)
	assert.InDelta(t, 0.5, st.Progress, 1e-9)
	assert.Equal(t, "Confessions", st.Work)

	// When: moving to the next stage
	p.SetStage(StageFullText, 10)

	// Then: counters reset
	st = p.Stats()
	assert.Equal(t, 0, st.Current)
	assert.Empty(t, st.Work)
	assert.Zero(t, st.Progress)
}

func TestProgressTracker_ProgressCapsAtOne(t *testing.T) {
	p := NewProgressTracker()
	p.SetStage(StageIndexing, 2)
	p.Update(3, "")

	assert.Equal(t, 1.0, p.Stats().Progress)
	assert.Zero(t, p.Stats().ETA)
}

func TestProgressTracker_Errors(t *testing.T) {
	p := NewProgressTracker()

	p.AddError(ErrorEvent{Source: "a.jsonl", Err: errors.New("boom")})
	p.AddError(ErrorEvent{Err: errors.New("hmm"), IsWarn: true})

	st := p.Stats()
	assert.Equal(t, 1, st.ErrorCount)
	assert.Equal(t, 1, st.WarnCount)
	assert.Len(t, p.Errors(), 1)
}
