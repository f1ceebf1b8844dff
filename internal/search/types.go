// Package search answers phrase queries over the indexed corpus.
//
// Four strategies read the derived indexes: exact phrase lookup in the
// n-gram table, bounded-distance proximity over full-text candidates,
// fuzzy phrase matching with a Ratcliff/Obershelp ratio behind a trigram
// prefilter, and boolean expressions handed to the full-text backend.
// Combined search runs several of them side by side and keys the results
// by strategy without merging or re-ranking.
package search

import (
	"encoding/json"
	"time"

	"github.com/Aman-CERP/patrology/internal/corpus"
)

// Hit is one search result with its chapter metadata and a text snippet.
type Hit struct {
	ChapterID     int64    `json:"chapter_id"`
	Author        string   `json:"author"`
	Work          string   `json:"work"`
	URL           string   `json:"url"`
	ChapterNumber int      `json:"chapter_number"`
	ChapterTitle  string   `json:"chapter"`
	Context       string   `json:"context"`
	Strategy      Strategy `json:"match_type"`

	// Position is the token offset of an exact match.
	Position int `json:"position,omitempty"`

	// Distance is the matched token span of a proximity hit.
	Distance int `json:"distance,omitempty"`

	// MatchedPhrase and Similarity are set by exact and fuzzy hits.
	MatchedPhrase string  `json:"matched_phrase,omitempty"`
	Similarity    float64 `json:"similarity,omitempty"`
}

func newHit(rec corpus.ChapterRecord, s Strategy) Hit {
	return Hit{
		ChapterID:     rec.ChapterID,
		Author:        rec.Author,
		Work:          rec.WorkTitle,
		URL:           rec.URL,
		ChapterNumber: rec.ChapterNumber,
		ChapterTitle:  rec.ChapterTitle,
		Strategy:      s,
	}
}

// Request is a search issued by a presentation layer.
type Request struct {
	Query string
	Type  Strategy

	// Limit caps each strategy's hits. Zero selects the configured default.
	Limit int

	// Author keeps only hits whose author name contains it, ignoring case.
	// It is applied after the strategy ran, so fewer than Limit hits may remain.
	Author string

	// Strategies are run by combined search. Empty selects the defaults.
	Strategies []Strategy

	// MaxDistance and Threshold override the configured proximity distance
	// and fuzzy threshold when non-nil.
	MaxDistance *int
	Threshold   *float64
}

// Response carries the hits of a search. Single-strategy searches fill
// Hits; combined search fills Groups with one key per requested strategy.
type Response struct {
	Query    string             `json:"query"`
	Type     Strategy           `json:"type"`
	Hits     []Hit              `json:"results,omitempty"`
	Groups   map[Strategy][]Hit `json:"groups,omitempty"`
	Total    int                `json:"total"`
	Duration time.Duration      `json:"-"`
	TookMS   int64              `json:"took_ms"`
}

// MarshalJSON always writes results for single-strategy searches, as an
// empty list when nothing matched; combined searches write groups only.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	out := struct {
		plain
		Hits *[]Hit `json:"results,omitempty"`
	}{plain: plain(r)}
	if r.Groups == nil {
		hits := r.Hits
		if hits == nil {
			hits = []Hit{}
		}
		out.Hits = &hits
	}
	return json.Marshal(out)
}
