package index

import (
	"regexp"
	"strings"

	"github.com/Aman-CERP/patrology/internal/corpus"
)

const (
	// MinPhraseLength and MaxPhraseLength bound the n-gram window.
	MinPhraseLength = 2
	MaxPhraseLength = 10
)

// wordPattern matches runs of letters, digits and underscores in any script.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lowercases text and returns its word tokens. Punctuation and
// whitespace separate tokens and are dropped.
func Tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// NormalizePhrase returns the canonical phrase form used as the phrase-index
// key: lowercase tokens joined by single spaces.
func NormalizePhrase(s string) string {
	return strings.Join(Tokenize(s), " ")
}

// GeneratePhrases returns every n-gram of tokens for n in
// [MinPhraseLength, MaxPhraseLength], grouped by length then by position.
func GeneratePhrases(tokens []string) []corpus.PhraseEntry {
	var out []corpus.PhraseEntry
	for length := MinPhraseLength; length <= MaxPhraseLength; length++ {
		for i := 0; i+length <= len(tokens); i++ {
			out = append(out, corpus.PhraseEntry{
				Phrase:   strings.Join(tokens[i:i+length], " "),
				Position: i,
				Length:   length,
			})
		}
	}
	return out
}

// GenerateTrigrams returns the three-rune substring at every rune offset of
// the lowercased content.
func GenerateTrigrams(content string) []corpus.TrigramEntry {
	runes := []rune(strings.ToLower(content))
	if len(runes) < 3 {
		return nil
	}
	out := make([]corpus.TrigramEntry, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, corpus.TrigramEntry{Trigram: string(runes[i : i+3]), Position: i})
	}
	return out
}

// DistinctTrigrams returns the distinct trigrams of s in first-seen order.
func DistinctTrigrams(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range GenerateTrigrams(s) {
		if !seen[t.Trigram] {
			seen[t.Trigram] = true
			out = append(out, t.Trigram)
		}
	}
	return out
}
