package indexer

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/Aman-CERP/patrology/internal/config"
	"github.com/Aman-CERP/patrology/internal/corpus"
	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/index"
)

type (
	// Document is one author, one work and its chapters.
	Document = index.Document
	// Result summarizes the ingestion of one document.
	Result = index.IngestResult
)

// ErrBusy is returned by Open when another writer holds the data directory.
var ErrBusy = errors.New("data directory is locked by another writer")

// Summary totals one ingestion call.
type Summary struct {
	Documents int
	Created   int
	Skipped   int
}

type options struct {
	backend fulltext.Backend
	workers int
}

// Option configures Open.
type Option func(*options)

// WithBackend selects the full-text backend: "sqlite" (default) or "bleve".
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = fulltext.Backend(strings.ToLower(name))
	}
}

// WithWorkers sets the number of chapters tokenized in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Indexer writes documents into one data directory.
type Indexer struct {
	lock     *corpus.DataDirLock
	store    *corpus.Store
	postings fulltext.Postings
	builder  *index.Builder
}

// Open locks dataDir and opens its corpus for writing.
func Open(ctx context.Context, dataDir string, opts ...Option) (*Indexer, error) {
	cfg := config.NewConfig()
	cfg.Paths.DataDir = dataDir
	o := options{backend: fulltext.Backend(cfg.FullText.Backend), workers: cfg.Ingest.Workers}
	for _, opt := range opts {
		opt(&o)
	}

	lock := corpus.NewDataDirLock(dataDir)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, perrors.New(perrors.ErrCodeStoreLocked, "failed to lock data directory", err)
	}
	if !ok {
		return nil, ErrBusy
	}

	store, err := corpus.Open(cfg.DatabasePath())
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	postings, err := fulltext.New(ctx, o.backend, cfg.BleveDir(), store)
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return &Indexer{
		lock:     lock,
		store:    store,
		postings: postings,
		builder:  index.NewBuilder(store, postings, index.WithWorkers(o.workers)),
	}, nil
}

// Ingest stores docs. Chapters already present are skipped.
func (x *Indexer) Ingest(ctx context.Context, docs ...Document) (Summary, error) {
	results, err := x.builder.IngestAll(ctx, docs)
	sum := Summary{Documents: len(results)}
	for _, r := range results {
		sum.Created += r.Created
		sum.Skipped += r.Skipped
	}
	return sum, err
}

// IngestJSONL reads documents, one per line, from r and stores them.
func (x *Indexer) IngestJSONL(ctx context.Context, r io.Reader) (Summary, error) {
	docs, err := index.ReadJSONL(r)
	if err != nil {
		return Summary{}, err
	}
	return x.Ingest(ctx, docs...)
}

// IngestFile loads and stores a JSONL file.
func (x *Indexer) IngestFile(ctx context.Context, path string) (Summary, error) {
	docs, err := index.LoadFile(path)
	if err != nil {
		return Summary{}, err
	}
	return x.Ingest(ctx, docs...)
}

// DeleteChapter removes a chapter and everything derived from it.
func (x *Indexer) DeleteChapter(ctx context.Context, chapterID int64) error {
	return x.builder.DeleteChapter(ctx, chapterID)
}

// RebuildFullText re-posts every chapter and returns how many were posted.
func (x *Indexer) RebuildFullText(ctx context.Context) (int, error) {
	return x.builder.RebuildFullText(ctx)
}

// Close releases the corpus and the writer lock.
func (x *Indexer) Close() error {
	return errors.Join(x.postings.Close(), x.store.Close(), x.lock.Unlock())
}
