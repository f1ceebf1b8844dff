package corpus

// Author is a Church Father (or other writer) owning one or more works.
type Author struct {
	ID          int64  `json:"id,omitempty"`
	Name        string `json:"name"`
	Dates       string `json:"dates,omitempty"`
	Description string `json:"description,omitempty"`
	IsSaint     bool   `json:"is_saint"`
	IsDoctor    bool   `json:"is_doctor"`
}

// Work is a single treatise, letter collection or homily series.
// URL is the natural key used for idempotent re-ingestion.
type Work struct {
	ID       int64  `json:"id,omitempty"`
	AuthorID int64  `json:"author_id,omitempty"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	WorkType string `json:"work_type,omitempty"`
	Century  int    `json:"century,omitempty"`
}

// Chapter is one content unit of a work. Content is immutable once indexed.
type Chapter struct {
	ID      int64  `json:"id,omitempty"`
	WorkID  int64  `json:"work_id,omitempty"`
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PhraseEntry is one word n-gram of a chapter.
type PhraseEntry struct {
	Phrase   string
	Position int
	Length   int
}

// TrigramEntry is one three-rune substring of a chapter's lowercased content.
type TrigramEntry struct {
	Trigram  string
	Position int
}

// ChapterMeta is the author/work/chapter metadata attached to every hit.
type ChapterMeta struct {
	ChapterID     int64
	WorkID        int64
	ChapterNumber int
	ChapterTitle  string
	WorkTitle     string
	URL           string
	Author        string
}

// ChapterRecord is a chapter joined to its metadata, with content.
type ChapterRecord struct {
	ChapterMeta
	Content string
}

// PhraseMatch is a phrase-index row joined to its chapter.
type PhraseMatch struct {
	ChapterRecord
	Phrase   string
	Position int
}

// PhraseCandidate is a distinct (phrase, chapter) pair considered by fuzzy search.
type PhraseCandidate struct {
	Phrase    string
	ChapterID int64
}

// AuthorSummary is one row of the author listing.
type AuthorSummary struct {
	Name      string `json:"name"`
	Dates     string `json:"dates"`
	IsSaint   bool   `json:"is_saint"`
	IsDoctor  bool   `json:"is_doctor"`
	WorkCount int    `json:"work_count"`
}

// Stats holds exact cardinalities of the corpus and its derived indexes.
type Stats struct {
	TotalAuthors           int64 `json:"total_authors"`
	TotalWorks             int64 `json:"total_works"`
	TotalChapters          int64 `json:"total_chapters"`
	UniquePhrases          int64 `json:"unique_phrases"`
	TotalPhraseOccurrences int64 `json:"total_phrase_occurrences"`
	TotalTrigrams          int64 `json:"total_trigrams"`
}
