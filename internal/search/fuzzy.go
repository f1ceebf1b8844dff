package search

import (
	"context"
	"math"
	"sort"

	"github.com/Aman-CERP/patrology/internal/index"
)

// Fuzzy compares the normalized query against indexed phrases of one word
// fewer to one word more and keeps those whose Ratio reaches threshold.
// The first qualifying phrase of a chapter, in index order, represents it.
// Hits are sorted by similarity, highest first, and truncated to limit.
//
// At most limit×FuzzyCandidateFactor (phrase, chapter) pairs are scored.
// With the trigram prefilter on, chapters sharing enough of the query's
// trigrams are scanned first; when they yield fewer than limit hits the
// scan is repeated without the restriction.
func (e *Engine) Fuzzy(ctx context.Context, query string, threshold float64, limit int) ([]Hit, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	phrase := index.NormalizePhrase(query)
	n := len(index.Tokenize(phrase))
	if n == 0 {
		return []Hit{}, nil
	}

	chapterIDs, err := e.prefilter(ctx, phrase)
	if err != nil {
		return nil, err
	}
	best, err := e.scoreFuzzy(ctx, phrase, n, chapterIDs, threshold, limit)
	if err != nil {
		return nil, err
	}
	// Trigram overlap does not bound Ratio; rescan everything when the
	// restricted set comes up short.
	if chapterIDs != nil && len(best) < limit {
		if best, err = e.scoreFuzzy(ctx, phrase, n, nil, threshold, limit); err != nil {
			return nil, err
		}
	}
	if len(best) == 0 {
		return []Hit{}, nil
	}

	ids := make([]int64, len(best))
	for i, b := range best {
		ids[i] = b.chapterID
	}
	recs, err := e.store.Chapters(ctx, ids)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(best))
	for _, b := range best {
		rec, ok := recs[b.chapterID]
		if !ok {
			continue
		}
		h := newHit(rec, StrategyFuzzy)
		h.MatchedPhrase = b.phrase
		h.Similarity = b.ratio
		h.Context = ExtractContext(rec.Content, b.phrase, e.config.ContextWords)
		hits = append(hits, h)
	}
	return hits, nil
}

type fuzzyMatch struct {
	chapterID int64
	phrase    string
	ratio     float64
}

// scoreFuzzy scores candidate phrases of n-1..n+1 words, restricted to
// chapterIDs when non-nil, and returns the best per chapter.
func (e *Engine) scoreFuzzy(ctx context.Context, phrase string, n int, chapterIDs []int64, threshold float64, limit int) ([]fuzzyMatch, error) {
	candidates, err := e.store.PhraseCandidates(ctx, n-1, n+1, chapterIDs, limit*e.config.FuzzyCandidateFactor)
	if err != nil {
		return nil, err
	}

	ratios := make(map[string]float64)
	seen := make(map[int64]bool)
	var best []fuzzyMatch
	for _, c := range candidates {
		if seen[c.ChapterID] {
			continue
		}
		r, ok := ratios[c.Phrase]
		if !ok {
			r = Ratio(phrase, c.Phrase)
			ratios[c.Phrase] = r
		}
		if r >= threshold {
			seen[c.ChapterID] = true
			best = append(best, fuzzyMatch{c.ChapterID, c.Phrase, r})
		}
	}
	sort.SliceStable(best, func(i, j int) bool { return best[i].ratio > best[j].ratio })
	if len(best) > limit {
		best = best[:limit]
	}
	return best, nil
}

// prefilter returns the chapters worth scanning for phrase, or nil for no
// restriction. Phrases shorter than one trigram are never prefiltered.
func (e *Engine) prefilter(ctx context.Context, phrase string) ([]int64, error) {
	if !e.config.TrigramPrefilter {
		return nil, nil
	}
	trigrams := index.DistinctTrigrams(phrase)
	if len(trigrams) == 0 {
		return nil, nil
	}
	need := int(math.Ceil(e.config.MinTrigramOverlap * float64(len(trigrams))))
	ids, err := e.store.TrigramOverlap(ctx, trigrams, max(need, 1), e.config.PrefilterChapters)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
