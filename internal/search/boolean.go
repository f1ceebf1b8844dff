package search

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/index"
)

// Boolean evaluates an AND/OR/NOT expression with the full-text backend.
// Hits come in chapter id order with a snippet around the first keyword.
// A malformed expression is a query error.
func (e *Engine) Boolean(ctx context.Context, expr string, limit int) ([]Hit, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	parsed, err := fulltext.ParseExpr(expr)
	if err != nil {
		return nil, err
	}

	ids, err := e.postings.Match(ctx, expr, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Hit{}, nil
	}
	recs, err := e.store.Chapters(ctx, ids)
	if err != nil {
		return nil, err
	}

	keywords := parsed.Keywords()
	hits := make([]Hit, 0, len(ids))
	for _, id := range ids {
		rec, ok := recs[id]
		if !ok {
			continue
		}
		h := newHit(rec, StrategyBoolean)
		h.Context = KeywordSnippet(rec.Content, keywords)
		hits = append(hits, h)
	}
	return hits, nil
}

// Combined runs each strategy with the same limit and default tunables.
// The map holds a key for every requested strategy, empty when nothing
// matched.
func (e *Engine) Combined(ctx context.Context, query string, strategies []Strategy, limit int) (map[Strategy][]Hit, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return e.combined(ctx, query, strategies, e.config.ProximityDistance, e.config.FuzzyThreshold, limit)
}

func (e *Engine) combined(ctx context.Context, query string, strategies []Strategy, distance int, threshold float64, limit int) (map[Strategy][]Hit, error) {
	results := make(map[Strategy][]Hit, len(strategies))
	var run []Strategy
	for _, s := range strategies {
		if s == StrategyCombined {
			return nil, invalidNesting()
		}
		if _, dup := results[s]; !dup {
			results[s] = []Hit{}
			run = append(run, s)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range run {
		g.Go(func() error {
			var hits []Hit
			var err error
			switch s {
			case StrategyExact:
				hits, err = e.Exact(gctx, query, limit)
			case StrategyProximity:
				words := splitWords(query)
				if len(words) < 2 {
					return nil
				}
				hits, err = e.Proximity(gctx, words, distance, limit)
			case StrategyFuzzy:
				hits, err = e.Fuzzy(gctx, query, threshold, limit)
			case StrategyBoolean:
				tokens := index.Tokenize(query)
				if len(tokens) == 0 {
					return nil
				}
				hits, err = e.Boolean(gctx, fulltext.AllOf(tokens), limit)
			case StrategyCombined:
				return invalidNesting()
			default:
				return unknownStrategy(s)
			}
			if err != nil {
				return err
			}
			mu.Lock()
			results[s] = hits
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
