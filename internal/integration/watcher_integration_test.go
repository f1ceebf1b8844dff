package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/index"
	"github.com/Aman-CERP/patrology/internal/search"
	"github.com/Aman-CERP/patrology/internal/watcher"
)

func writeDropFile(t *testing.T, path string, docs []index.Document) {
	t.Helper()
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	require.NoError(t, err)
	require.NoError(t, index.WriteJSONL(f, docs))
	require.NoError(t, f.Close())
	require.NoError(t, os.Rename(tmp, path))
}

func ignatiusDoc() index.Document {
	return index.Document{
		Author: corpus.Author{Name: "Ignatius of Antioch", IsSaint: true},
		Work:   corpus.Work{Title: "Epistle to the Romans", URL: "https://example.org/0107.htm"},
		Chapters: []corpus.Chapter{{
			Number:  4,
			Title:   "Allow me to fall a prey to the beasts",
			Content: "I am the wheat of God, and let me be ground by the teeth of the wild beasts.",
		}},
	}
}

// startWatch runs a watcher and coordinator over drop until the test ends.
func startWatch(t *testing.T, c *testCorpus, drop string, opts watcher.Options) {
	t.Helper()
	w, err := watcher.New(opts)
	require.NoError(t, err)

	coord := index.NewCoordinator(drop, c.builder, opts)
	_, err = coord.ReconcileOnStartup(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Start(gctx, drop) })
	g.Go(func() error { return coord.Run(gctx, w.Events()) })
	t.Cleanup(func() {
		cancel()
		_ = g.Wait()
		_ = w.Stop()
	})

	// Let the watcher register the directory.
	time.Sleep(200 * time.Millisecond)
}

func findsWheat(c *testCorpus) func() bool {
	return func() bool {
		resp, err := c.engine.Search(context.Background(), search.Request{
			Query: "wheat of god",
			Type:  search.StrategyExact,
		})
		return err == nil && resp.Total > 0
	}
}

func TestWatch_DroppedFileBecomesSearchable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range []struct {
		name string
		opts watcher.Options
	}{
		{"fsnotify", watcher.Options{DebounceWindow: 100 * time.Millisecond}},
		{"polling", watcher.Options{DebounceWindow: 100 * time.Millisecond, PollInterval: 100 * time.Millisecond, ForcePolling: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Given: a watched, empty drop directory
			c := openCorpus(t, t.TempDir(), fulltext.BackendSQLite)
			drop := t.TempDir()
			startWatch(t, c, drop, tc.opts)
			require.False(t, findsWheat(c)())

			// When: a corpus file is dropped in
			writeDropFile(t, filepath.Join(drop, "ignatius.jsonl"), []index.Document{ignatiusDoc()})

			// Then: its chapter becomes searchable
			assert.Eventually(t, findsWheat(c), 5*time.Second, 50*time.Millisecond)
		})
	}
}

func TestWatch_ExistingFilesIngestedOnStartup(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: a drop directory that already holds a corpus file and a stray
	c := openCorpus(t, t.TempDir(), fulltext.BackendBleve)
	drop := t.TempDir()
	writeDropFile(t, filepath.Join(drop, "ignatius.jsonl"), []index.Document{ignatiusDoc()})
	require.NoError(t, os.WriteFile(filepath.Join(drop, "notes.txt"), []byte("not a corpus"), 0o644))

	// When: reconciling
	coord := index.NewCoordinator(drop, c.builder, watcher.Options{})
	res, err := coord.ReconcileOnStartup(context.Background())

	// Then: only the JSONL file is ingested
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 1, res.Created)
	assert.Zero(t, res.Failed)
	assert.True(t, findsWheat(c)())
}

func TestWatch_RemovedFileKeepsChapters(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	// Given: an ingested drop file
	c := openCorpus(t, t.TempDir(), fulltext.BackendSQLite)
	drop := t.TempDir()
	path := filepath.Join(drop, "ignatius.jsonl")
	writeDropFile(t, path, []index.Document{ignatiusDoc()})
	coord := index.NewCoordinator(drop, c.builder, watcher.Options{})
	_, err := coord.ReconcileOnStartup(context.Background())
	require.NoError(t, err)

	// When: the file is removed
	require.NoError(t, os.Remove(path))
	_, err = coord.HandleEvents(context.Background(), []watcher.FileEvent{
		{Path: "ignatius.jsonl", Operation: watcher.OpDelete, Timestamp: time.Now()},
	})
	require.NoError(t, err)

	// Then: the chapter stays in the corpus
	assert.True(t, findsWheat(c)())
}
