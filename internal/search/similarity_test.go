package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "", 0},
		{"abc", "xyz", 0},
		{"abcd", "bcde", 0.75},
		{"grace", "grace", 1},
		{"the incarnation of word", "the incarnation of the word", 0.92},
		{"the incarnation of word", "the incarnation of", 36.0 / 41.0},
		{"λόγος", "λόγου", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"our lord jesus", "lord jesus christ"},
		{"faith hope", "hope faith"},
	}
	for _, p := range pairs {
		ab, ba := Ratio(p[0], p[1]), Ratio(p[1], p[0])
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
		assert.GreaterOrEqual(t, ba, 0.0)
		assert.LessOrEqual(t, ba, 1.0)
	}
}

func TestRatio_NoJunkHeuristic(t *testing.T) {
	// a long string of one repeated rune would be treated as junk by
	// matchers with a popularity heuristic
	a := make([]rune, 300)
	for i := range a {
		a[i] = 'a'
	}
	assert.InDelta(t, 1.0, Ratio(string(a), string(a)), 1e-9)
}
