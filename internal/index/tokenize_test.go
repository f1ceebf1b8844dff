package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"punctuation separates", "Grace unto you, and peace!", []string{"grace", "unto", "you", "and", "peace"}},
		{"apostrophe splits", "God's will", []string{"god", "s", "will"}},
		{"digits and underscore", "Book_X 10", []string{"book_x", "10"}},
		{"greek", "Λόγος ἦν", []string{"λόγος", "ἦν"}},
		{"empty", "  ...  ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestNormalizePhrase(t *testing.T) {
	assert.Equal(t, "illustrious apostles", NormalizePhrase("  Illustrious,   APOSTLES. "))
	assert.Equal(t, "", NormalizePhrase("?!"))
}

func expectedPhraseCount(n int) int {
	total := 0
	for l := MinPhraseLength; l <= MaxPhraseLength; l++ {
		if n-l+1 > 0 {
			total += n - l + 1
		}
	}
	return total
}

func TestGeneratePhrases_WindowBounds(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 9, 10, 11, 25} {
		tokens := make([]string, n)
		for i := range tokens {
			tokens[i] = "w"
		}

		phrases := GeneratePhrases(tokens)

		assert.Len(t, phrases, expectedPhraseCount(n), "n=%d", n)
		for _, p := range phrases {
			assert.GreaterOrEqual(t, p.Length, MinPhraseLength)
			assert.LessOrEqual(t, p.Length, MaxPhraseLength)
			assert.Len(t, strings.Split(p.Phrase, " "), p.Length)
			assert.LessOrEqual(t, p.Position+p.Length, n)
		}
	}
}

func TestGeneratePhrases_Content(t *testing.T) {
	phrases := GeneratePhrases(Tokenize("Let us set before our eyes the illustrious apostles."))

	require.NotEmpty(t, phrases)
	assert.Equal(t, "let us", phrases[0].Phrase)
	assert.Equal(t, 0, phrases[0].Position)

	found := false
	for _, p := range phrases {
		if p.Phrase == "illustrious apostles" {
			found = true
			assert.Equal(t, 7, p.Position)
			assert.Equal(t, 2, p.Length)
		}
	}
	assert.True(t, found)
}

func TestGenerateTrigrams(t *testing.T) {
	got := GenerateTrigrams("AbcD")
	require.Len(t, got, 2)
	assert.Equal(t, "abc", got[0].Trigram)
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, "bcd", got[1].Trigram)
	assert.Equal(t, 1, got[1].Position)

	assert.Empty(t, GenerateTrigrams("ab"))

	// Offsets are runes, not bytes.
	greek := GenerateTrigrams("λόγος")
	require.Len(t, greek, 3)
	assert.Equal(t, "γος", greek[2].Trigram)
	assert.Equal(t, 2, greek[2].Position)
}

func TestDistinctTrigrams(t *testing.T) {
	assert.Equal(t, []string{"aaa"}, DistinctTrigrams("aaaaa"))
	assert.Equal(t, []string{"the", "he ", "e t", " th"}, DistinctTrigrams("the the"))
	assert.Empty(t, DistinctTrigrams("a"))
}
