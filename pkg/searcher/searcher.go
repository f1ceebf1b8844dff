package searcher

import (
	"context"
	"errors"
	"strings"

	"github.com/Aman-CERP/patrology/internal/config"
	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/search"
)

type (
	// Request describes one search.
	Request = search.Request
	// Response carries the hits of a search.
	Response = search.Response
	// Hit is one matching chapter.
	Hit = search.Hit
	// Strategy selects how a query is matched.
	Strategy = search.Strategy
	// AuthorSummary describes one author of the corpus.
	AuthorSummary = corpus.AuthorSummary
	// Stats counts the corpus and its indexes.
	Stats = corpus.Stats
)

// Strategies.
const (
	Exact     = search.StrategyExact
	Proximity = search.StrategyProximity
	Fuzzy     = search.StrategyFuzzy
	Boolean   = search.StrategyBoolean
	Combined  = search.StrategyCombined
)

// ParseStrategy resolves a strategy by name.
func ParseStrategy(name string) (Strategy, error) {
	return search.ParseStrategy(name)
}

type options struct {
	backend  fulltext.Backend
	database string
	engine   []search.EngineOption
}

// Option configures Open.
type Option func(*options)

// WithBackend selects the full-text backend the corpus was indexed with:
// "sqlite" (default) or "bleve".
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = fulltext.Backend(strings.ToLower(name))
	}
}

// WithDatabase overrides the database file name inside the data directory.
func WithDatabase(name string) Option {
	return func(o *options) {
		o.database = name
	}
}

// WithConfig overrides the search defaults.
func WithConfig(cfg search.Config) Option {
	return func(o *options) {
		o.engine = append(o.engine, search.WithConfig(cfg))
	}
}

// Searcher runs phrase searches over one data directory.
type Searcher struct {
	store    *corpus.Store
	postings fulltext.Postings
	engine   *search.Engine
}

// Open opens the corpus in dataDir. A missing corpus is created empty.
func Open(ctx context.Context, dataDir string, opts ...Option) (*Searcher, error) {
	cfg := config.NewConfig()
	cfg.Paths.DataDir = dataDir
	o := options{
		backend:  fulltext.Backend(cfg.FullText.Backend),
		database: cfg.Paths.Database,
	}
	for _, opt := range opts {
		opt(&o)
	}
	cfg.Paths.Database = o.database

	store, err := corpus.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	postings, err := fulltext.New(ctx, o.backend, cfg.BleveDir(), store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	engine, err := search.NewEngine(store, postings, o.engine...)
	if err != nil {
		_ = postings.Close()
		_ = store.Close()
		return nil, err
	}
	return &Searcher{store: store, postings: postings, engine: engine}, nil
}

// Search runs req.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	return s.engine.Search(ctx, req)
}

// Authors lists the authors of the corpus.
func (s *Searcher) Authors(ctx context.Context) ([]AuthorSummary, error) {
	return s.engine.Authors(ctx)
}

// AuthorChapters lists chapters by authors matching author, optionally
// only those containing phrase.
func (s *Searcher) AuthorChapters(ctx context.Context, author, phrase string, limit int) ([]Hit, error) {
	return s.engine.AuthorChapters(ctx, author, phrase, limit)
}

// Stats counts the corpus.
func (s *Searcher) Stats(ctx context.Context) (Stats, error) {
	return s.engine.Stats(ctx)
}

// Close releases the corpus.
func (s *Searcher) Close() error {
	return errors.Join(s.postings.Close(), s.store.Close())
}
