package searcher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patrology/internal/index"
	"github.com/Aman-CERP/patrology/pkg/indexer"
	"github.com/Aman-CERP/patrology/pkg/searcher"
)

func TestSearcher_FindsIndexedPhrase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Given: the demo corpus indexed through the public indexer
	x, err := indexer.Open(ctx, dir)
	require.NoError(t, err)
	_, err = x.Ingest(ctx, index.DemoCorpus()...)
	require.NoError(t, err)
	require.NoError(t, x.Close())

	s, err := searcher.Open(ctx, dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	// When: searching by strategy name
	strategy, err := searcher.ParseStrategy("exact")
	require.NoError(t, err)
	resp, err := s.Search(ctx, searcher.Request{Query: "illustrious apostles", Type: strategy})

	// Then: Clement's chapter is found
	require.NoError(t, err)
	require.NotEmpty(t, resp.Hits)
	assert.Equal(t, "Clement of Rome", resp.Hits[0].Author)
	assert.Equal(t, searcher.Exact, resp.Hits[0].Strategy)

	authors, err := s.Authors(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, 3)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Positive(t, st.TotalChapters)
}

func TestSearcher_EmptyDataDir(t *testing.T) {
	s, err := searcher.Open(context.Background(), t.TempDir(), searcher.WithBackend("bleve"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	resp, err := s.Search(context.Background(), searcher.Request{Query: "grace", Type: searcher.Boolean})

	require.NoError(t, err)
	assert.Zero(t, resp.Total)
}
