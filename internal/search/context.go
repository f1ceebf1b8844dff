package search

import (
	"strings"
)

const (
	// DefaultContextWords is the number of words kept on each side of a match.
	DefaultContextWords = 20

	// fallbackWords is how much of a chapter is shown when a match cannot be
	// located in its text.
	fallbackWords = 50

	snippetBefore  = 20
	snippetAfter   = 30
	snippetMaxHead = 200

	ellipsis = "..."
)

// ExtractContext returns up to windowWords words on each side of the first
// case-insensitive occurrence of phrase in content. Words are split on
// whitespace, so surrounding punctuation is kept. Truncated sides are
// marked with an ellipsis. When phrase does not occur literally the first
// fifty words are returned instead.
func ExtractContext(content, phrase string, windowWords int) string {
	if out, ok := locate(content, phrase, windowWords); ok {
		return out
	}
	return leadingWords(strings.Fields(content), fallbackWords)
}

// locate is ExtractContext without the fallback.
func locate(content, phrase string, windowWords int) (string, bool) {
	words := strings.Fields(content)
	phrase = strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	if windowWords < 0 {
		windowWords = 0
	}

	joined := strings.ToLower(strings.Join(words, " "))
	idx := -1
	if phrase != "" {
		idx = strings.Index(joined, phrase)
	}
	if idx < 0 {
		return "", false
	}

	before := strings.Fields(joined[:idx])
	after := strings.Fields(joined[idx:])
	phraseWords := len(strings.Fields(phrase))

	var parts []string
	truncatedLeft := len(before) > windowWords
	if truncatedLeft {
		before = before[len(before)-windowWords:]
	}
	parts = append(parts, before...)
	parts = append(parts, phrase)

	rest := after[min(phraseWords, len(after)):]
	truncatedRight := len(rest) > windowWords
	if truncatedRight {
		rest = rest[:windowWords]
	}
	parts = append(parts, rest...)

	out := strings.Join(parts, " ")
	if truncatedLeft {
		out = ellipsis + out
	}
	if truncatedRight {
		out += ellipsis
	}
	return out, true
}

// KeywordSnippet returns the words from twenty before to thirty after the
// first word containing any keyword, wrapped in ellipses. Without a keyword
// hit it returns the first two hundred words.
func KeywordSnippet(content string, keywords []string) string {
	words := strings.Fields(content)

	var lowered []string
	for _, kw := range keywords {
		if kw = strings.ToLower(kw); kw != "" {
			lowered = append(lowered, kw)
		}
	}

	first := -1
	for i, w := range words {
		lw := strings.ToLower(w)
		for _, kw := range lowered {
			if strings.Contains(lw, kw) {
				first = i
				break
			}
		}
		if first >= 0 {
			break
		}
	}
	if first < 0 {
		return leadingWords(words, snippetMaxHead)
	}

	start := max(0, first-snippetBefore)
	end := min(len(words), first+snippetAfter)
	return ellipsis + strings.Join(words[start:end], " ") + ellipsis
}

// tokenContext renders windowWords tokens on each side of tokens[from:to],
// marking truncated sides. It serves matches whose words are separated by
// punctuation in the raw text.
func tokenContext(tokens []string, from, to, windowWords int) string {
	out := tokenWindow(tokens, from-windowWords, to+windowWords)
	if from-windowWords > 0 {
		out = ellipsis + out
	}
	if to+windowWords < len(tokens) {
		out += ellipsis
	}
	return out
}

// tokenWindow joins tokens[from:to] after clamping both bounds.
func tokenWindow(tokens []string, from, to int) string {
	from = max(0, from)
	to = min(len(tokens), to)
	if from >= to {
		return ""
	}
	return strings.Join(tokens[from:to], " ")
}

func leadingWords(words []string, n int) string {
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + ellipsis
}
