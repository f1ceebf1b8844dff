package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patrology/internal/watcher"
)

func writeCorpusFile(t *testing.T, path string, docs ...Document) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteJSONL(f, docs))
	require.NoError(t, f.Close())
}

func TestCoordinator_IngestsNewFile(t *testing.T) {
	// Given: a drop directory with one corpus file
	b, store, _ := newTestBuilder(t)
	dir := t.TempDir()
	writeCorpusFile(t, filepath.Join(dir, "clement.jsonl"), sampleDoc())
	c := NewCoordinator(dir, b, watcher.DefaultOptions())

	// When: the watcher reports it
	res, err := c.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "clement.jsonl", Operation: watcher.OpCreate},
	})

	// Then: its chapters are in the corpus
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 2, res.Created)
	st, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalChapters)
}

func TestCoordinator_SkipsUnchangedContent(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	dir := t.TempDir()
	writeCorpusFile(t, filepath.Join(dir, "clement.jsonl"), sampleDoc())
	c := NewCoordinator(dir, b, watcher.DefaultOptions())
	ctx := context.Background()
	ev := []watcher.FileEvent{{Path: "clement.jsonl", Operation: watcher.OpModify}}

	_, err := c.HandleEvents(ctx, ev)
	require.NoError(t, err)

	// When: the same bytes are reported again
	res, err := c.HandleEvents(ctx, ev)

	// Then: nothing is re-ingested
	require.NoError(t, err)
	assert.Zero(t, res.Files)
	assert.Zero(t, res.Documents)

	// When: the file is removed and dropped again
	_, err = c.HandleEvents(ctx, []watcher.FileEvent{{Path: "clement.jsonl", Operation: watcher.OpDelete}})
	require.NoError(t, err)
	res, err = c.HandleEvents(ctx, ev)

	// Then: it is re-read, and unchanged chapters are skipped
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 2, res.Skipped)
}

func TestCoordinator_BadFileDoesNotStopBatch(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-bad.jsonl"), []byte("{oops\n"), 0o644))
	writeCorpusFile(t, filepath.Join(dir, "b-good.jsonl"), sampleDoc())
	c := NewCoordinator(dir, b, watcher.DefaultOptions())

	res, err := c.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "a-bad.jsonl", Operation: watcher.OpCreate},
		{Path: "missing.jsonl", Operation: watcher.OpCreate},
		{Path: "b-good.jsonl", Operation: watcher.OpCreate},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.Files)
}

func TestCoordinator_ReconcileOnStartup(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	dir := t.TempDir()
	writeCorpusFile(t, filepath.Join(dir, "demo.jsonl"), DemoCorpus()...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	c := NewCoordinator(dir, b, watcher.DefaultOptions())

	res, err := c.ReconcileOnStartup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, len(DemoCorpus()), res.Documents)
	assert.Zero(t, res.Failed)
}

func TestCoordinator_RunStopsOnClose(t *testing.T) {
	b, _, _ := newTestBuilder(t)
	c := NewCoordinator(t.TempDir(), b, watcher.DefaultOptions())

	events := make(chan []watcher.FileEvent, 1)
	events <- []watcher.FileEvent{{Path: "gone.jsonl", Operation: watcher.OpRename}}
	close(events)

	assert.NoError(t, c.Run(context.Background(), events))
}
