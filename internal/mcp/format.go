package mcp

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/search"
)

// FormatSearchResponse renders a search response as markdown.
func FormatSearchResponse(resp *search.Response) string {
	if resp == nil || resp.Total == 0 {
		q := ""
		if resp != nil {
			q = resp.Query
		}
		return fmt.Sprintf("No results found for \"%s\"", q)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s Search Results for \"%s\"\n\n", title(resp.Type.String()), resp.Query))
	sb.WriteString(plural(resp.Total, "Found %d result"))
	sb.WriteString("\n\n")

	if resp.Groups == nil {
		for i, h := range resp.Hits {
			formatHit(&sb, i+1, h)
		}
		return sb.String()
	}

	// Groups in the fixed strategy order, not map order.
	for _, s := range search.Strategies() {
		hits, ok := resp.Groups[s]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s (%d)\n\n", title(s.String()), len(hits)))
		if len(hits) == 0 {
			sb.WriteString("_No matches._\n\n")
			continue
		}
		for i, h := range hits {
			formatHit(&sb, i+1, h)
		}
	}
	return sb.String()
}

// FormatStats renders corpus statistics as a markdown table.
func FormatStats(st corpus.Stats) string {
	var sb strings.Builder
	sb.WriteString("## Corpus Statistics\n\n")
	sb.WriteString("| Measure | Count |\n|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Authors | %d |\n", st.TotalAuthors))
	sb.WriteString(fmt.Sprintf("| Works | %d |\n", st.TotalWorks))
	sb.WriteString(fmt.Sprintf("| Chapters | %d |\n", st.TotalChapters))
	sb.WriteString(fmt.Sprintf("| Unique phrases | %d |\n", st.UniquePhrases))
	sb.WriteString(fmt.Sprintf("| Phrase occurrences | %d |\n", st.TotalPhraseOccurrences))
	sb.WriteString(fmt.Sprintf("| Trigrams | %d |\n", st.TotalTrigrams))
	return sb.String()
}

// FormatAuthors renders the author listing as markdown.
func FormatAuthors(authors []corpus.AuthorSummary) string {
	if len(authors) == 0 {
		return "No authors indexed."
	}
	var sb strings.Builder
	sb.WriteString("## Authors\n\n")
	for _, a := range authors {
		sb.WriteString("- **" + a.Name + "**")
		if a.Dates != "" {
			sb.WriteString(" (" + a.Dates + ")")
		}
		var marks []string
		if a.IsSaint {
			marks = append(marks, "saint")
		}
		if a.IsDoctor {
			marks = append(marks, "doctor")
		}
		if len(marks) > 0 {
			sb.WriteString(" [" + strings.Join(marks, ", ") + "]")
		}
		sb.WriteString(", " + plural(a.WorkCount, "%d work") + "\n")
	}
	return sb.String()
}

func formatHit(sb *strings.Builder, num int, h search.Hit) {
	sb.WriteString(fmt.Sprintf("**%d. %s, %s", num, h.Author, h.Work))
	if h.ChapterTitle != "" {
		sb.WriteString(fmt.Sprintf(", %s", h.ChapterTitle))
	} else {
		sb.WriteString(fmt.Sprintf(", chapter %d", h.ChapterNumber))
	}
	sb.WriteString("**")

	switch h.Strategy {
	case search.StrategyProximity:
		sb.WriteString(fmt.Sprintf(" (span: %d)", h.Distance))
	case search.StrategyFuzzy:
		sb.WriteString(fmt.Sprintf(" (similarity: %.2f)", h.Similarity))
	}
	sb.WriteString("\n\n")

	if h.Context != "" {
		sb.WriteString("> " + strings.ReplaceAll(h.Context, "\n", " ") + "\n\n")
	}
	if h.MatchedPhrase != "" && h.Strategy == search.StrategyFuzzy {
		sb.WriteString(fmt.Sprintf("Matched: `%s`\n\n", h.MatchedPhrase))
	}
	if h.URL != "" {
		sb.WriteString(h.URL + "\n\n")
	}
}

func plural(n int, format string) string {
	s := fmt.Sprintf(format, n)
	if n != 1 {
		s += "s"
	}
	return s
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
