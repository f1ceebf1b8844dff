package mcp

import (
	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/search"
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query      string   `json:"query" jsonschema:"the phrase, words or boolean expression to search for"`
	Type       string   `json:"type,omitempty" jsonschema:"search type: exact, proximity, fuzzy, boolean or combined (default exact)"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results per search type, default 20"`
	Author     string   `json:"author,omitempty" jsonschema:"keep only results whose author name contains this text"`
	Strategies []string `json:"strategies,omitempty" jsonschema:"search types run by combined search"`
	Distance   *int     `json:"distance,omitempty" jsonschema:"maximum number of words between proximity terms"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"minimum fuzzy similarity between 0 and 1"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Query   string                 `json:"query" jsonschema:"the trimmed query"`
	Type    string                 `json:"type" jsonschema:"the search type that ran"`
	Total   int                    `json:"total" jsonschema:"number of results across all groups"`
	TookMS  int64                  `json:"took_ms" jsonschema:"search time in milliseconds"`
	Results []HitOutput            `json:"results,omitempty" jsonschema:"results of a single search type"`
	Groups  map[string][]HitOutput `json:"groups,omitempty" jsonschema:"combined search results keyed by search type"`
}

// HitOutput is one search result with the location of the match.
type HitOutput struct {
	ChapterID     int64   `json:"chapter_id" jsonschema:"chapter identifier"`
	Author        string  `json:"author" jsonschema:"author name"`
	Work          string  `json:"work" jsonschema:"work title"`
	URL           string  `json:"url" jsonschema:"source page of the work"`
	ChapterNumber int     `json:"chapter_number" jsonschema:"chapter number within the work"`
	Chapter       string  `json:"chapter" jsonschema:"chapter title"`
	Context       string  `json:"context" jsonschema:"text surrounding the match"`
	MatchType     string  `json:"match_type" jsonschema:"search type that produced the result"`
	Position      int     `json:"position,omitempty" jsonschema:"word offset of an exact match"`
	Distance      int     `json:"distance,omitempty" jsonschema:"word span of a proximity match"`
	MatchedPhrase string  `json:"matched_phrase,omitempty" jsonschema:"indexed phrase that matched"`
	Similarity    float64 `json:"similarity,omitempty" jsonschema:"fuzzy similarity between 0 and 1"`
}

// StatsInput defines the input schema for the stats tool (no parameters).
type StatsInput struct{}

// StatsOutput defines the output schema for the stats tool.
type StatsOutput struct {
	TotalAuthors           int64 `json:"total_authors" jsonschema:"number of authors"`
	TotalWorks             int64 `json:"total_works" jsonschema:"number of works"`
	TotalChapters          int64 `json:"total_chapters" jsonschema:"number of chapters"`
	UniquePhrases          int64 `json:"unique_phrases" jsonschema:"number of distinct indexed phrases"`
	TotalPhraseOccurrences int64 `json:"total_phrase_occurrences" jsonschema:"number of phrase occurrences"`
	TotalTrigrams          int64 `json:"total_trigrams" jsonschema:"number of trigram occurrences"`
}

// AuthorsInput defines the input schema for the authors tool (no parameters).
type AuthorsInput struct{}

// AuthorsOutput defines the output schema for the authors tool.
type AuthorsOutput struct {
	Authors []AuthorOutput `json:"authors" jsonschema:"authors ordered by name"`
}

// AuthorOutput is one author of the corpus.
type AuthorOutput struct {
	Name      string `json:"name" jsonschema:"author name"`
	Dates     string `json:"dates,omitempty" jsonschema:"lifetime as written in the source"`
	IsSaint   bool   `json:"is_saint" jsonschema:"venerated as a saint"`
	IsDoctor  bool   `json:"is_doctor" jsonschema:"doctor of the Church"`
	WorkCount int    `json:"work_count" jsonschema:"number of indexed works"`
}

// AuthorChaptersInput defines the input schema for the author_chapters tool.
type AuthorChaptersInput struct {
	Author string `json:"author" jsonschema:"text contained in the author name"`
	Phrase string `json:"phrase,omitempty" jsonschema:"only list chapters containing this exact phrase"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of chapters, default 20"`
}

// AuthorChaptersOutput defines the output schema for the author_chapters tool.
type AuthorChaptersOutput struct {
	Author   string      `json:"author" jsonschema:"the author filter"`
	Chapters []HitOutput `json:"chapters" jsonschema:"matching chapters"`
}

// ToHitOutput converts a search hit to its tool representation.
func ToHitOutput(h search.Hit) HitOutput {
	return HitOutput{
		ChapterID:     h.ChapterID,
		Author:        h.Author,
		Work:          h.Work,
		URL:           h.URL,
		ChapterNumber: h.ChapterNumber,
		Chapter:       h.ChapterTitle,
		Context:       h.Context,
		MatchType:     h.Strategy.String(),
		Position:      h.Position,
		Distance:      h.Distance,
		MatchedPhrase: h.MatchedPhrase,
		Similarity:    h.Similarity,
	}
}

func toHitOutputs(hits []search.Hit) []HitOutput {
	out := make([]HitOutput, 0, len(hits))
	for _, h := range hits {
		out = append(out, ToHitOutput(h))
	}
	return out
}

// ToSearchOutput converts a search response to its tool representation.
func ToSearchOutput(resp *search.Response) SearchOutput {
	out := SearchOutput{
		Query:  resp.Query,
		Type:   resp.Type.String(),
		Total:  resp.Total,
		TookMS: resp.TookMS,
	}
	if resp.Groups != nil {
		out.Groups = make(map[string][]HitOutput, len(resp.Groups))
		for s, hits := range resp.Groups {
			out.Groups[s.String()] = toHitOutputs(hits)
		}
		return out
	}
	out.Results = toHitOutputs(resp.Hits)
	return out
}

func toStatsOutput(st corpus.Stats) StatsOutput {
	return StatsOutput{
		TotalAuthors:           st.TotalAuthors,
		TotalWorks:             st.TotalWorks,
		TotalChapters:          st.TotalChapters,
		UniquePhrases:          st.UniquePhrases,
		TotalPhraseOccurrences: st.TotalPhraseOccurrences,
		TotalTrigrams:          st.TotalTrigrams,
	}
}

func toAuthorsOutput(authors []corpus.AuthorSummary) AuthorsOutput {
	out := AuthorsOutput{Authors: make([]AuthorOutput, 0, len(authors))}
	for _, a := range authors {
		out.Authors = append(out.Authors, AuthorOutput(a))
	}
	return out
}
