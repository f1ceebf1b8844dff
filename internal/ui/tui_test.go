package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel() *indexingModel {
	m := newIndexingModel(NewProgressTracker(), "/data/patrology")
	m.styles = NoColorStyles()
	return m
}

func TestNewTUIRenderer_RequiresTTY(t *testing.T) {
	_, err := NewTUIRenderer(NewConfig(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestIndexingModel_View(t *testing.T) {
	// Given: a model halfway through indexing
	m := newTestModel()
	m.tracker.SetStage(StageIndexing, 10)
	m.tracker.Update(5, "Against Heresies")

	// When: rendering
	view := m.View()

	// Then: header, stages, counts and the work title are shown
	assert.Contains(t, view, "Patrology Indexer • /data/patrology")
	assert.Contains(t, view, "● Load")
	assert.Contains(t, view, "○ Full-text")
	assert.Contains(t, view, "5 / 10 chapters")
	assert.Contains(t, view, "Against Heresies")
	assert.Contains(t, view, "q to quit")
}

func TestIndexingModel_PreparingWithoutTotal(t *testing.T) {
	m := newTestModel()

	assert.Contains(t, m.View(), "Preparing...")
}

func TestIndexingModel_CompleteQuits(t *testing.T) {
	m := newTestModel()

	// When: the run completes
	_, cmd := m.Update(completeMsg(CompletionStats{Documents: 2, Chapters: 7, Created: 7, Duration: 2 * time.Second}))

	// Then: the program quits and the summary is shown
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	view := m.View()
	assert.Contains(t, view, "Indexing Complete")
	assert.Contains(t, view, "(7 new, 0 unchanged)")
	assert.Contains(t, view, "2s")
}

func TestIndexingModel_CtrlC(t *testing.T) {
	m := newTestModel()

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.Equal(t, "Cancelled.\n", m.View())
}

func TestIndexingModel_StatusBarCounts(t *testing.T) {
	m := newTestModel()
	m.tracker.AddError(ErrorEvent{Err: assert.AnError})

	assert.Contains(t, m.View(), "✗ 1 errors")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", formatDuration(45*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1m 30s", formatDuration(90*time.Second))
	assert.Equal(t, "1h 5m", formatDuration(65*time.Minute))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Homil...", truncate("Homilies on John", 8))
	assert.Equal(t, "...", truncate("anything", 2))
}
