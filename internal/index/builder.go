// Package index derives the phrase, trigram and full-text indexes from
// chapter content and ingests corpus documents into the store.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/fulltext"
)

// Document is one ingestion unit: an author, one of their works and the
// work's chapters.
type Document struct {
	Author   corpus.Author    `json:"author"`
	Work     corpus.Work      `json:"work"`
	Chapters []corpus.Chapter `json:"chapters"`
}

// IngestResult summarizes the ingestion of one document.
type IngestResult struct {
	BatchID    string        `json:"batch_id"`
	AuthorID   int64         `json:"author_id"`
	WorkID     int64         `json:"work_id"`
	ChapterIDs []int64       `json:"chapter_ids"`
	Created    int           `json:"created"`
	Skipped    int           `json:"skipped"`
	Phrases    int           `json:"phrases"`
	Trigrams   int           `json:"trigrams"`
	Duration   time.Duration `json:"duration"`
}

// Progress reports one finished chapter.
type Progress struct {
	BatchID   string
	Work      string
	ChapterID int64
	Created   bool
	Done      int
	Total     int
}

// Builder indexes chapters. It is safe for concurrent use.
type Builder struct {
	store    *corpus.Store
	postings fulltext.Postings

	workers    int
	retry      errors.RetryConfig
	onProgress func(Progress)

	// works collapses concurrent insert-or-get calls for the same url.
	works singleflight.Group

	// postMu serializes chapter transactions when postings are written
	// outside the transaction, so a compensating delete can never hit a
	// posting that a later chapter reused the id for.
	postMu sync.Mutex
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds how many chapters are indexed in parallel.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithProgress registers a callback invoked after each chapter. Calls for
// one document are serialized; calls for different documents may overlap.
func WithProgress(fn func(Progress)) Option {
	return func(b *Builder) {
		b.onProgress = fn
	}
}

// WithRetry overrides the retry policy for contended writes.
func WithRetry(cfg errors.RetryConfig) Option {
	return func(b *Builder) {
		b.retry = cfg
	}
}

// NewBuilder creates a Builder writing to store and postings.
func NewBuilder(store *corpus.Store, postings fulltext.Postings, opts ...Option) *Builder {
	b := &Builder{
		store:    store,
		postings: postings,
		workers:  min(runtime.NumCPU(), 4),
		retry:    errors.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type chapterOutcome struct {
	id       int64
	created  bool
	phrases  int
	trigrams int
}

// IndexChapter stores ch under workID together with its phrase entries,
// trigram entries and full-text posting, all or nothing. A chapter number
// that already exists in the work resolves to the existing id.
func (b *Builder) IndexChapter(ctx context.Context, workID int64, ch corpus.Chapter) (int64, error) {
	out, err := b.indexChapter(ctx, workID, ch)
	return out.id, err
}

func (b *Builder) indexChapter(ctx context.Context, workID int64, ch corpus.Chapter) (chapterOutcome, error) {
	tokens := Tokenize(ch.Content)
	phrases := GeneratePhrases(tokens)
	trigrams := GenerateTrigrams(ch.Content)

	if !b.postings.Transactional() {
		b.postMu.Lock()
		defer b.postMu.Unlock()
	}

	out, err := errors.RetryWithResult(ctx, b.retry, func() (chapterOutcome, error) {
		return b.writeChapter(ctx, workID, ch, phrases, trigrams)
	})
	if err != nil {
		return chapterOutcome{}, errors.IngestionError(
			fmt.Sprintf("failed to index chapter %d of work %d", ch.Number, workID), err)
	}

	if out.created {
		slog.Debug("chapter_indexed",
			slog.Int64("chapter_id", out.id),
			slog.Int64("work_id", workID),
			slog.Int("phrases", out.phrases),
			slog.Int("trigrams", out.trigrams))
	}
	return out, nil
}

func (b *Builder) writeChapter(ctx context.Context, workID int64, ch corpus.Chapter,
	phrases []corpus.PhraseEntry, trigrams []corpus.TrigramEntry) (chapterOutcome, error) {

	var out chapterOutcome
	posted := false

	err := b.store.WithTx(ctx, func(tx *sql.Tx) error {
		id, created, err := corpus.InsertChapter(ctx, tx, workID, ch)
		if err != nil {
			return err
		}
		out = chapterOutcome{id: id, created: created}
		if !created {
			return nil
		}

		if err := corpus.InsertPhrases(ctx, tx, id, phrases); err != nil {
			return err
		}
		if err := corpus.InsertTrigrams(ctx, tx, id, trigrams); err != nil {
			return err
		}
		if err := b.postings.Add(ctx, tx, id, ch.Content); err != nil {
			return err
		}
		posted = true
		out.phrases, out.trigrams = len(phrases), len(trigrams)
		return nil
	})

	if err != nil && posted && !b.postings.Transactional() {
		if rmErr := b.postings.Remove(context.WithoutCancel(ctx), nil, out.id); rmErr != nil {
			slog.Error("posting_compensation_failed",
				slog.Int64("chapter_id", out.id),
				slog.String("error", rmErr.Error()))
		}
	}
	if err != nil {
		return chapterOutcome{}, err
	}
	return out, nil
}

// Validate checks a document before anything is written.
func Validate(doc Document) error {
	if corpus.NormalizeName(doc.Author.Name) == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "author name is required", nil)
	}
	if strings.TrimSpace(doc.Work.Title) == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "work title is required", nil).
			WithDetail("url", doc.Work.URL)
	}
	if strings.TrimSpace(doc.Work.URL) == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "work url is required", nil).
			WithDetail("title", doc.Work.Title)
	}

	seen := make(map[int]bool, len(doc.Chapters))
	for _, ch := range doc.Chapters {
		if seen[ch.Number] {
			return errors.New(errors.ErrCodeDuplicateChapter,
				fmt.Sprintf("chapter %d appears more than once", ch.Number), nil).
				WithDetail("url", doc.Work.URL)
		}
		seen[ch.Number] = true
	}
	return nil
}

// Ingest stores a document: author and work are inserted or resolved, then
// chapters are indexed in parallel. Re-ingesting the same work url is
// idempotent.
func (b *Builder) Ingest(ctx context.Context, doc Document) (IngestResult, error) {
	start := time.Now()
	if err := Validate(doc); err != nil {
		return IngestResult{}, err
	}

	res := IngestResult{
		BatchID:    uuid.Must(uuid.NewV7()).String(),
		ChapterIDs: make([]int64, len(doc.Chapters)),
	}

	authorID, err := errors.RetryWithResult(ctx, b.retry, func() (int64, error) {
		return b.store.InsertOrGetAuthor(ctx, doc.Author)
	})
	if err != nil {
		return IngestResult{}, errors.IngestionError("failed to store author", err).
			WithDetail("author", doc.Author.Name)
	}
	res.AuthorID = authorID

	url := strings.TrimSpace(doc.Work.URL)
	v, err, _ := b.works.Do(url, func() (any, error) {
		return errors.RetryWithResult(ctx, b.retry, func() (int64, error) {
			return b.store.InsertOrGetWork(ctx, authorID, doc.Work)
		})
	})
	if err != nil {
		return IngestResult{}, errors.IngestionError("failed to store work", err).
			WithDetail("url", url)
	}
	res.WorkID = v.(int64)

	outcomes := make([]chapterOutcome, len(doc.Chapters))
	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, ch := range doc.Chapters {
		g.Go(func() error {
			out, err := b.indexChapter(gctx, res.WorkID, ch)
			if err != nil {
				return err
			}
			outcomes[i] = out

			mu.Lock()
			defer mu.Unlock()
			done++
			if b.onProgress != nil {
				b.onProgress(Progress{
					BatchID:   res.BatchID,
					Work:      doc.Work.Title,
					ChapterID: out.id,
					Created:   out.created,
					Done:      done,
					Total:     len(doc.Chapters),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IngestResult{}, err
	}

	for i, out := range outcomes {
		res.ChapterIDs[i] = out.id
		if out.created {
			res.Created++
		} else {
			res.Skipped++
		}
		res.Phrases += out.phrases
		res.Trigrams += out.trigrams
	}
	res.Duration = time.Since(start)

	slog.Info("work_ingested",
		slog.String("batch_id", res.BatchID),
		slog.String("url", url),
		slog.Int("chapters", len(doc.Chapters)),
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
		slog.Int64("duration_ms", res.Duration.Milliseconds()))

	return res, nil
}

// IngestAll ingests documents concurrently, returning results in input
// order. The first failure cancels the remaining documents.
func (b *Builder) IngestAll(ctx context.Context, docs []Document) ([]IngestResult, error) {
	results := make([]IngestResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, doc := range docs {
		g.Go(func() error {
			res, err := b.Ingest(gctx, doc)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteChapter removes a chapter with its phrases, trigrams and posting.
func (b *Builder) DeleteChapter(ctx context.Context, chapterID int64) error {
	rec, err := b.store.Chapter(ctx, chapterID)
	if err != nil {
		return err
	}

	if !b.postings.Transactional() {
		b.postMu.Lock()
		defer b.postMu.Unlock()
	}

	removed := false
	err = errors.Retry(ctx, b.retry, func() error {
		return b.store.WithTx(ctx, func(tx *sql.Tx) error {
			if err := b.postings.Remove(ctx, tx, chapterID); err != nil {
				return err
			}
			removed = true
			deleted, err := corpus.DeleteChapter(ctx, tx, chapterID)
			if err != nil {
				return err
			}
			if !deleted {
				return errors.New(errors.ErrCodeNotFound, fmt.Sprintf("chapter %d not found", chapterID), nil)
			}
			return nil
		})
	})

	if err != nil && removed && !b.postings.Transactional() {
		if addErr := b.postings.Add(context.WithoutCancel(ctx), nil, chapterID, rec.Content); addErr != nil {
			slog.Error("posting_compensation_failed",
				slog.Int64("chapter_id", chapterID),
				slog.String("error", addErr.Error()))
		}
	}
	if err != nil {
		return err
	}

	slog.Info("chapter_deleted",
		slog.Int64("chapter_id", chapterID),
		slog.String("work", rec.WorkTitle))
	return nil
}

// RebuildFullText clears the postings and re-posts every chapter. It returns
// the number of chapters posted.
func (b *Builder) RebuildFullText(ctx context.Context) (int, error) {
	if err := b.postings.Reset(ctx); err != nil {
		return 0, err
	}

	n := 0
	err := b.store.ForEachChapter(ctx, func(rec corpus.ChapterRecord) error {
		err := errors.Retry(ctx, b.retry, func() error {
			return b.store.WithTx(ctx, func(tx *sql.Tx) error {
				return b.postings.Add(ctx, tx, rec.ChapterID, rec.Content)
			})
		})
		if err != nil {
			return errors.IngestionError(fmt.Sprintf("failed to re-post chapter %d", rec.ChapterID), err)
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}

	slog.Info("fulltext_rebuilt", slog.Int("chapters", n))
	return n, nil
}
