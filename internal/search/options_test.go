package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorFilter(t *testing.T) {
	hits := []Hit{
		{ChapterID: 1, Author: "Clement of Rome"},
		{ChapterID: 2, Author: "Augustine of Hippo"},
		{ChapterID: 3, Author: "Athanasius"},
	}

	tests := []struct {
		name   string
		author string
		want   []int64
	}{
		{"empty keeps all", "", []int64{1, 2, 3}},
		{"blank keeps all", "   ", []int64{1, 2, 3}},
		{"case insensitive substring", "HIPPO", []int64{2}},
		{"shared substring", "of ", []int64{1, 2}},
		{"no match", "jerome", []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterHits(hits, authorFilter(tt.author))
			ids := make([]int64, 0, len(got))
			for _, h := range got {
				ids = append(ids, h.ChapterID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterHits_NeverNil(t *testing.T) {
	assert.NotNil(t, filterHits(nil, nil))
	assert.NotNil(t, filterHits(nil, authorFilter("basil")))
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"grace", "word"}, splitWords("  grace \t word\n"))
	assert.Empty(t, splitWords("   "))
}
