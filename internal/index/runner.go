package index

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/ui"
)

// RunnerConfig selects what an indexing run ingests.
type RunnerConfig struct {
	// Files are JSONL corpus files.
	Files []string

	// Demo adds the built-in demo corpus.
	Demo bool

	// RebuildFullText re-posts every chapter after ingesting.
	RebuildFullText bool
}

// RunnerResult is the outcome of a run.
type RunnerResult struct {
	Documents int
	Chapters  int
	Created   int
	Skipped   int
	Phrases   int
	Trigrams  int
	Reposted  int
	Errors    int
	Duration  time.Duration
}

// RunnerDependencies are the collaborators of a Runner.
type RunnerDependencies struct {
	Renderer ui.Renderer
	Store    *corpus.Store
	Postings fulltext.Postings
	Workers  int
}

// Runner executes an indexing run with progress reporting.
type Runner struct {
	renderer ui.Renderer
	builder  *Builder

	done  atomic.Int64
	total atomic.Int64
}

// NewRunner creates a Runner.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("corpus store is required")
	}
	if deps.Postings == nil {
		return nil, fmt.Errorf("full-text postings are required")
	}

	r := &Runner{renderer: deps.Renderer}
	r.builder = NewBuilder(deps.Store, deps.Postings,
		WithWorkers(deps.Workers),
		WithProgress(r.onChapter))
	return r, nil
}

// Builder returns the builder the runner ingests with.
func (r *Runner) Builder() *Builder {
	return r.builder
}

// onChapter counts finished chapters across all documents.
func (r *Runner) onChapter(p Progress) {
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageIndexing,
		Current: int(r.done.Add(1)),
		Total:   int(r.total.Load()),
		Work:    p.Work,
	})
}

// Run loads, ingests and optionally re-posts the corpus. Files that fail
// to load are reported and skipped; an ingestion failure aborts the run.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	start := time.Now()
	res := &RunnerResult{}
	var timings ui.StageTimings

	// Load
	stageStart := time.Now()
	docs := r.load(cfg, res)
	timings.Load = time.Since(stageStart)

	chapters := 0
	for _, d := range docs {
		chapters += len(d.Chapters)
	}
	res.Documents = len(docs)
	res.Chapters = chapters

	// Index
	stageStart = time.Now()
	r.done.Store(0)
	r.total.Store(int64(chapters))
	r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageIndexing, Total: chapters})

	results, err := r.builder.IngestAll(ctx, docs)
	if err != nil {
		res.Errors++
		r.renderer.AddError(ui.ErrorEvent{Source: "ingest", Err: err})
		return res, err
	}
	for _, ir := range results {
		res.Created += ir.Created
		res.Skipped += ir.Skipped
		res.Phrases += ir.Phrases
		res.Trigrams += ir.Trigrams
	}
	timings.Index = time.Since(stageStart)

	// Full-text
	if cfg.RebuildFullText {
		stageStart = time.Now()
		r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageFullText, Message: "re-posting chapters"})
		n, err := r.builder.RebuildFullText(ctx)
		res.Reposted = n
		if err != nil {
			res.Errors++
			r.renderer.AddError(ui.ErrorEvent{Source: "fulltext", Err: err})
			return res, err
		}
		r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageFullText, Current: n, Total: n})
		timings.FullText = time.Since(stageStart)
	}

	res.Duration = time.Since(start)
	r.renderer.Complete(ui.CompletionStats{
		Documents: res.Documents,
		Chapters:  res.Chapters,
		Created:   res.Created,
		Skipped:   res.Skipped,
		Phrases:   res.Phrases,
		Trigrams:  res.Trigrams,
		Duration:  res.Duration,
		Errors:    res.Errors,
		Stages:    timings,
	})
	return res, nil
}

func (r *Runner) load(cfg RunnerConfig, res *RunnerResult) []Document {
	var docs []Document
	if cfg.Demo {
		r.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageLoading, Message: "demo corpus"})
		docs = append(docs, DemoCorpus()...)
	}
	for i, path := range cfg.Files {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StageLoading,
			Current: i + 1,
			Total:   len(cfg.Files),
			Message: path,
		})
		loaded, err := LoadFile(path)
		if err != nil {
			res.Errors++
			r.renderer.AddError(ui.ErrorEvent{Source: path, Err: err})
			continue
		}
		docs = append(docs, loaded...)
	}
	return docs
}
