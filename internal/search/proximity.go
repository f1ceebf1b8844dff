package search

import (
	"context"

	"github.com/Aman-CERP/patrology/internal/index"
)

// proximityContextWords is the token margin shown around a proximity match.
const proximityContextWords = 10

// Proximity finds chapters where every word occurs with some occurrence of
// each within maxDistance+(len(words)-1) tokens of an occurrence of the
// first word. Words are tokenized and deduplicated first; fewer than two
// distinct words yield no hits.
//
// Candidates are the first limit×ProximityOverfetch chapters, by id, that
// contain any of the words. Per chapter the first accepted anchor wins, and
// scanning stops once limit hits are collected.
func (e *Engine) Proximity(ctx context.Context, words []string, maxDistance, limit int) ([]Hit, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	terms := proximityTerms(words)
	if len(terms) < 2 {
		return []Hit{}, nil
	}
	if maxDistance < 0 {
		maxDistance = 0
	}

	ids, err := e.postings.MatchAny(ctx, terms, limit*e.config.ProximityOverfetch)
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

	span := maxDistance + len(terms) - 1
	hits := make([]Hit, 0, min(limit, len(ids)))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, ok := recs[id]
		if !ok {
			// posting outlived its chapter
			continue
		}

		tokens := e.chapterTokens(rec)
		lo, hi, ok := proximityMatch(tokens, terms, span)
		if !ok {
			continue
		}

		h := newHit(rec, StrategyProximity)
		h.Position = lo
		h.Distance = hi - lo
		h.Context = tokenWindow(tokens, lo-proximityContextWords, hi+proximityContextWords+1)
		hits = append(hits, h)
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

// proximityTerms lowercases and tokenizes words, dropping duplicates.
func proximityTerms(words []string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, w := range words {
		for _, t := range index.Tokenize(w) {
			if !seen[t] {
				seen[t] = true
				terms = append(terms, t)
			}
		}
	}
	return terms
}

// proximityMatch scans the occurrences of terms[0] in order. For each
// anchor it takes every other term's closest occurrence and accepts the
// first anchor where all of them, and the overall span, fit within span.
func proximityMatch(tokens, terms []string, span int) (lo, hi int, ok bool) {
	positions := make(map[string][]int, len(terms))
	for _, t := range terms {
		positions[t] = nil
	}
	for i, tok := range tokens {
		if _, want := positions[tok]; want {
			positions[tok] = append(positions[tok], i)
		}
	}
	for _, t := range terms {
		if len(positions[t]) == 0 {
			return 0, 0, false
		}
	}

	for _, anchor := range positions[terms[0]] {
		lo, hi = anchor, anchor
		ok = true
		for _, t := range terms[1:] {
			p := closest(positions[t], anchor)
			if abs(p-anchor) > span {
				ok = false
				break
			}
			lo, hi = min(lo, p), max(hi, p)
		}
		if ok && hi-lo <= span {
			return lo, hi, true
		}
	}
	return 0, 0, false
}

// closest returns the element of the ascending slice ps nearest to target,
// preferring the earlier one on ties.
func closest(ps []int, target int) int {
	best := ps[0]
	for _, p := range ps[1:] {
		if abs(p-target) < abs(best-target) {
			best = p
		}
		if p > target {
			break
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
