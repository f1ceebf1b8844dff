package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Aman-CERP/patrology/internal/watcher"
)

// Coordinator ingests corpus files dropped into a watched directory.
type Coordinator struct {
	dir     string
	builder *Builder
	opts    watcher.Options

	mu sync.Mutex
	// hashes holds the content hash of each file last ingested, by name.
	hashes map[string]string
}

// BatchResult summarizes one handled batch of file events.
type BatchResult struct {
	Files     int
	Documents int
	Created   int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// NewCoordinator creates a coordinator for dir. Only files accepted by
// opts are ingested.
func NewCoordinator(dir string, builder *Builder, opts watcher.Options) *Coordinator {
	return &Coordinator{
		dir:     dir,
		builder: builder,
		opts:    opts.WithDefaults(),
		hashes:  make(map[string]string),
	}
}

// ReconcileOnStartup ingests every corpus file already in the directory.
func (c *Coordinator) ReconcileOnStartup(ctx context.Context) (BatchResult, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return BatchResult{}, fmt.Errorf("read watch directory: %w", err)
	}

	now := time.Now()
	var events []watcher.FileEvent
	for _, e := range entries {
		if e.IsDir() || !c.opts.Watches(e.Name()) {
			continue
		}
		events = append(events, watcher.FileEvent{Path: e.Name(), Operation: watcher.OpCreate, Timestamp: now})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })
	return c.HandleEvents(ctx, events)
}

// Run handles batches until events is closed or ctx is canceled.
func (c *Coordinator) Run(ctx context.Context, events <-chan []watcher.FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := c.HandleEvents(ctx, batch); err != nil {
				return err
			}
		}
	}
}

// HandleEvents ingests created and modified files. A file that fails to
// load or ingest is logged and counted, and the batch continues; only
// cancellation is returned as an error. Removing a file forgets its hash
// but keeps its chapters in the corpus.
func (c *Coordinator) HandleEvents(ctx context.Context, events []watcher.FileEvent) (BatchResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	var res BatchResult
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if ev.Operation.Removes() {
			delete(c.hashes, ev.Path)
			slog.Debug("watch_file_removed", slog.String("file", ev.Path))
			continue
		}

		n, err := c.ingestFile(ctx, ev.Path, &res)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed++
			slog.Warn("watch_file_failed",
				slog.String("file", ev.Path),
				slog.String("operation", ev.Operation.String()),
				slog.String("error", err.Error()))
			continue
		}
		if n > 0 {
			res.Files++
		}
	}
	res.Duration = time.Since(start)

	if res.Files > 0 || res.Failed > 0 {
		slog.Info("watch_batch_ingested",
			slog.Int("files", res.Files),
			slog.Int("documents", res.Documents),
			slog.Int("created", res.Created),
			slog.Int("skipped", res.Skipped),
			slog.Int("failed", res.Failed),
			slog.Int64("duration_ms", res.Duration.Milliseconds()))
	}
	return res, nil
}

// ingestFile loads and ingests one file unless its content is unchanged
// since the last ingest. It returns the number of documents ingested.
func (c *Coordinator) ingestFile(ctx context.Context, name string, res *BatchResult) (int, error) {
	path := filepath.Join(c.dir, name)

	sum, err := hashFile(path)
	if err != nil {
		return 0, err
	}
	if c.hashes[name] == sum {
		slog.Debug("watch_file_unchanged", slog.String("file", name))
		return 0, nil
	}

	docs, err := LoadFile(path)
	if err != nil {
		return 0, err
	}
	results, err := c.builder.IngestAll(ctx, docs)
	if err != nil {
		return 0, err
	}

	c.hashes[name] = sum
	res.Documents += len(results)
	for _, r := range results {
		res.Created += r.Created
		res.Skipped += r.Skipped
	}
	return len(results), nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
