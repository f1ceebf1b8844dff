package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Watches(t *testing.T) {
	opts := DefaultOptions()

	assert.True(t, opts.Watches("clement.jsonl"))
	assert.True(t, opts.Watches("/drop/AUGUSTINE.JSONL"))
	assert.False(t, opts.Watches("notes.txt"))
	assert.False(t, opts.Watches(".clement.jsonl"))
	assert.False(t, opts.Watches("clement.jsonl~"))
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{DebounceWindow: 50 * time.Millisecond}.WithDefaults()

	assert.Equal(t, 50*time.Millisecond, opts.DebounceWindow)
	assert.Equal(t, 5*time.Second, opts.PollInterval)
	assert.Equal(t, []string{".jsonl"}, opts.Extensions)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.True(t, OpRename.Removes())
	assert.False(t, OpModify.Removes())
}

// startWatcher runs a watcher on a temp dir until the test ends.
func startWatcher(t *testing.T, opts Options) (*HybridWatcher, string) {
	t.Helper()
	dir := t.TempDir()

	w, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx, dir)
	}()
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
		<-done
	})
	// let the watch register before files appear
	time.Sleep(100 * time.Millisecond)
	return w, dir
}

func waitBatch(t *testing.T, w *HybridWatcher) []FileEvent {
	t.Helper()
	select {
	case batch, ok := <-w.Events():
		require.True(t, ok)
		return batch
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch batch")
		return nil
	}
}

func TestHybridWatcher_ReportsNewCorpusFile(t *testing.T) {
	for _, polling := range []bool{false, true} {
		t.Run(map[bool]string{false: "fsnotify", true: "polling"}[polling], func(t *testing.T) {
			// Given: a watcher on an empty drop directory
			w, dir := startWatcher(t, Options{
				DebounceWindow: 50 * time.Millisecond,
				PollInterval:   50 * time.Millisecond,
				ForcePolling:   polling,
			})

			// When: a corpus file and an unrelated file are written
			require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))
			require.NoError(t, os.WriteFile(filepath.Join(dir, "clement.jsonl"), []byte("{}\n"), 0o644))

			// Then: one batch names only the corpus file
			batch := waitBatch(t, w)
			require.Len(t, batch, 1)
			assert.Equal(t, "clement.jsonl", batch[0].Path)
			assert.Equal(t, OpCreate, batch[0].Operation)
		})
	}
}

func TestHybridWatcher_RejectsMissingDirectory(t *testing.T) {
	w, err := New(DefaultOptions())
	require.NoError(t, err)
	defer w.Stop()

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, err)
}

func TestHybridWatcher_StopIsIdempotent(t *testing.T) {
	w, err := New(Options{ForcePolling: true})
	require.NoError(t, err)
	assert.Equal(t, "polling", w.WatcherType())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
}
