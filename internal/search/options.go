package search

import (
	"strings"
)

// FilterFunc reports whether a hit survives post-filtering.
type FilterFunc func(h Hit) bool

// authorFilter matches hits whose author contains substr, ignoring case.
// An empty substr keeps everything and returns nil.
func authorFilter(substr string) FilterFunc {
	substr = strings.ToLower(strings.TrimSpace(substr))
	if substr == "" {
		return nil
	}
	return func(h Hit) bool {
		return strings.Contains(strings.ToLower(h.Author), substr)
	}
}

// filterHits keeps the hits accepted by keep, preserving order. The result
// is never nil so empty strategy results serialize as [].
func filterHits(hits []Hit, keep FilterFunc) []Hit {
	if keep == nil {
		if hits == nil {
			return []Hit{}
		}
		return hits
	}
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if keep(h) {
			out = append(out, h)
		}
	}
	return out
}

func trimQuery(q string) string {
	return strings.TrimSpace(q)
}

// splitWords splits a query on whitespace for proximity search.
func splitWords(q string) []string {
	return strings.Fields(q)
}
