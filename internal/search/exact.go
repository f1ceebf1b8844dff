package search

import (
	"context"

	"github.com/Aman-CERP/patrology/internal/index"
)

// Exact looks the normalized query up in the phrase index. Each occurrence
// is one hit, in index order, capped at limit. Queries that normalize to
// fewer than two or more than ten words cannot be in the index and return
// no hits.
func (e *Engine) Exact(ctx context.Context, query string, limit int) ([]Hit, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	tokens := index.Tokenize(query)
	if len(tokens) < index.MinPhraseLength || len(tokens) > index.MaxPhraseLength {
		return []Hit{}, nil
	}
	phrase := index.NormalizePhrase(query)

	matches, err := e.store.LookupPhrase(ctx, phrase, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		h := newHit(m.ChapterRecord, StrategyExact)
		h.Position = m.Position
		h.MatchedPhrase = m.Phrase
		if ctxText, ok := locate(m.Content, m.Phrase, e.config.ContextWords); ok {
			h.Context = ctxText
		} else {
			n := len(tokens)
			h.Context = tokenContext(e.chapterTokens(m.ChapterRecord), m.Position, m.Position+n, e.config.ContextWords)
		}
		hits = append(hits, h)
	}
	return hits, nil
}
