package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/index"
	"github.com/Aman-CERP/patrology/internal/telemetry"
)

// Config holds the tunables of the query strategies.
type Config struct {
	DefaultLimit int
	MaxLimit     int

	// ProximityDistance is the default number of words allowed between terms.
	ProximityDistance int
	// ProximityOverfetch multiplies limit to size the full-text candidate set.
	ProximityOverfetch int

	FuzzyThreshold float64
	// FuzzyCandidateFactor multiplies limit to cap scanned (phrase, chapter) pairs.
	FuzzyCandidateFactor int

	// TrigramPrefilter narrows fuzzy candidates to chapters sharing at least
	// MinTrigramOverlap of the query's distinct trigrams, at most
	// PrefilterChapters of them.
	TrigramPrefilter  bool
	PrefilterChapters int
	MinTrigramOverlap float64

	ContextWords   int
	TokenCacheSize int

	// DefaultStrategies are run by combined search when none are requested.
	DefaultStrategies []Strategy
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:         20,
		MaxLimit:             500,
		ProximityDistance:    5,
		ProximityOverfetch:   3,
		FuzzyThreshold:       0.8,
		FuzzyCandidateFactor: 100,
		TrigramPrefilter:     true,
		PrefilterChapters:    200,
		MinTrigramOverlap:    0.5,
		ContextWords:         DefaultContextWords,
		TokenCacheSize:       256,
		DefaultStrategies:    []Strategy{StrategyExact, StrategyProximity, StrategyFuzzy},
	}
}

// Engine runs queries against a corpus store and its full-text postings.
// Every call acquires store handles for its own duration, so an Engine is
// safe for concurrent use.
type Engine struct {
	store    *corpus.Store
	postings fulltext.Postings
	config   Config
	metrics  *telemetry.QueryMetrics
	tokens   *lru.Cache[int64, []string]
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithConfig replaces the tunables. Out-of-range values fall back to
// their defaults.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.config = normalizeConfig(cfg)
	}
}

// WithMetrics records every Search call into m.
func WithMetrics(m *telemetry.QueryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = max(def.MaxLimit, cfg.DefaultLimit)
	}
	if cfg.ProximityDistance < 0 {
		cfg.ProximityDistance = def.ProximityDistance
	}
	if cfg.ProximityOverfetch <= 0 {
		cfg.ProximityOverfetch = def.ProximityOverfetch
	}
	if cfg.FuzzyThreshold <= 0 || cfg.FuzzyThreshold > 1 {
		cfg.FuzzyThreshold = def.FuzzyThreshold
	}
	if cfg.FuzzyCandidateFactor <= 0 {
		cfg.FuzzyCandidateFactor = def.FuzzyCandidateFactor
	}
	if cfg.PrefilterChapters <= 0 {
		cfg.PrefilterChapters = def.PrefilterChapters
	}
	if cfg.MinTrigramOverlap <= 0 || cfg.MinTrigramOverlap > 1 {
		cfg.MinTrigramOverlap = def.MinTrigramOverlap
	}
	if cfg.ContextWords <= 0 {
		cfg.ContextWords = def.ContextWords
	}
	if cfg.TokenCacheSize <= 0 {
		cfg.TokenCacheSize = def.TokenCacheSize
	}
	if len(cfg.DefaultStrategies) == 0 {
		cfg.DefaultStrategies = def.DefaultStrategies
	}
	return cfg
}

// NewEngine creates a search engine over store and postings.
func NewEngine(store *corpus.Store, postings fulltext.Postings, opts ...EngineOption) (*Engine, error) {
	if store == nil || postings == nil {
		return nil, errors.InternalError("search engine requires a store and full-text postings", nil)
	}

	e := &Engine{
		store:    store,
		postings: postings,
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	cache, err := lru.New[int64, []string](e.config.TokenCacheSize)
	if err != nil {
		return nil, errors.InternalError("failed to create token cache", err)
	}
	e.tokens = cache
	return e, nil
}

// Config returns the effective tunables.
func (e *Engine) Config() Config {
	return e.config
}

// chapterTokens tokenizes a chapter once. Chapter content is immutable, so
// cached tokens never go stale; deleted chapters simply stop being looked up.
func (e *Engine) chapterTokens(rec corpus.ChapterRecord) []string {
	if toks, ok := e.tokens.Get(rec.ChapterID); ok {
		return toks
	}
	toks := index.Tokenize(rec.Content)
	e.tokens.Add(rec.ChapterID, toks)
	return toks
}

// resolveLimit applies the default and clamps to the configured maximum.
func (e *Engine) resolveLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, errors.New(errors.ErrCodeInvalidLimit, fmt.Sprintf("limit must be positive, got %d", limit), nil)
	case limit == 0:
		limit = e.config.DefaultLimit
	}
	return min(limit, e.config.MaxLimit), nil
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return errors.New(errors.ErrCodeInvalidLimit, fmt.Sprintf("limit must be positive, got %d", limit), nil)
	}
	return nil
}

// Search validates req, dispatches it to its strategy and applies the
// author post-filter. Empty results are not an error.
func (e *Engine) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := e.search(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		slog.Warn("search_failed",
			slog.String("type", req.Type.String()),
			slog.String("query", req.Query),
			slog.String("code", errors.GetCode(err)),
			slog.String("error", err.Error()))
		return nil, err
	}

	resp.Duration = elapsed
	resp.TookMS = elapsed.Milliseconds()

	slog.Info("search_completed",
		slog.String("type", resp.Type.String()),
		slog.String("query", resp.Query),
		slog.Int("results", resp.Total),
		slog.Duration("duration", elapsed))

	if e.metrics != nil {
		e.metrics.Record(telemetry.QueryEvent{
			Query:       resp.Query,
			QueryType:   telemetry.QueryType(resp.Type.String()),
			ResultCount: resp.Total,
			Latency:     elapsed,
			Timestamp:   start,
		})
	}
	return resp, nil
}

func (e *Engine) search(ctx context.Context, req Request) (*Response, error) {
	query := trimQuery(req.Query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if req.Type == 0 {
		req.Type = StrategyExact
	}
	limit, err := e.resolveLimit(req.Limit)
	if err != nil {
		return nil, err
	}

	distance := e.config.ProximityDistance
	if req.MaxDistance != nil {
		if *req.MaxDistance < 0 {
			return nil, errors.QueryError(fmt.Sprintf("distance must be non-negative, got %d", *req.MaxDistance), nil)
		}
		distance = *req.MaxDistance
	}
	threshold := e.config.FuzzyThreshold
	if req.Threshold != nil {
		if *req.Threshold < 0 || *req.Threshold > 1 {
			return nil, errors.QueryError(fmt.Sprintf("threshold must be between 0 and 1, got %g", *req.Threshold), nil)
		}
		threshold = *req.Threshold
	}

	resp := &Response{Query: query, Type: req.Type}
	keep := authorFilter(req.Author)

	switch req.Type {
	case StrategyExact:
		resp.Hits, err = e.Exact(ctx, query, limit)
	case StrategyProximity:
		resp.Hits, err = e.Proximity(ctx, splitWords(query), distance, limit)
	case StrategyFuzzy:
		resp.Hits, err = e.Fuzzy(ctx, query, threshold, limit)
	case StrategyBoolean:
		resp.Hits, err = e.Boolean(ctx, query, limit)
	case StrategyCombined:
		strategies := req.Strategies
		if len(strategies) == 0 {
			strategies = e.config.DefaultStrategies
		}
		resp.Groups, err = e.combined(ctx, query, strategies, distance, threshold, limit)
	default:
		return nil, unknownStrategy(req.Type)
	}
	if err != nil {
		return nil, err
	}

	if resp.Groups != nil {
		for s, hits := range resp.Groups {
			resp.Groups[s] = filterHits(hits, keep)
			resp.Total += len(resp.Groups[s])
		}
	} else {
		resp.Hits = filterHits(resp.Hits, keep)
		resp.Total = len(resp.Hits)
	}
	return resp, nil
}

// Stats counts the corpus and its derived indexes.
func (e *Engine) Stats(ctx context.Context) (corpus.Stats, error) {
	return e.store.Stats(ctx)
}

// Authors lists every author with their work count, ordered by name.
func (e *Engine) Authors(ctx context.Context) ([]corpus.AuthorSummary, error) {
	return e.store.ListAuthors(ctx)
}

// AuthorChapters browses the chapters of authors whose name contains
// author. With a phrase, only chapters containing it are listed and the
// context is centred on it.
func (e *Engine) AuthorChapters(ctx context.Context, author, phrase string, limit int) ([]Hit, error) {
	if trimQuery(author) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "author must not be empty", nil)
	}
	limit, err := e.resolveLimit(limit)
	if err != nil {
		return nil, err
	}

	normalized := index.NormalizePhrase(phrase)
	recs, err := e.store.AuthorChapters(ctx, author, normalized, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(recs))
	for _, rec := range recs {
		h := newHit(rec, StrategyExact)
		h.MatchedPhrase = normalized
		h.Context = ExtractContext(rec.Content, normalized, e.config.ContextWords)
		hits = append(hits, h)
	}
	return hits, nil
}
