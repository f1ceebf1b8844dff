package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/patrology/internal/config"
	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/index"
	"github.com/Aman-CERP/patrology/internal/search"
)

var backends = []fulltext.Backend{fulltext.BackendSQLite, fulltext.BackendBleve}

// testCorpus is an on-disk corpus with its full-text backend.
type testCorpus struct {
	dir      string
	store    *corpus.Store
	postings fulltext.Postings
	builder  *index.Builder
	engine   *search.Engine
}

func openCorpus(t *testing.T, dir string, backend fulltext.Backend) *testCorpus {
	t.Helper()
	ctx := context.Background()

	store, err := corpus.Open(filepath.Join(dir, "corpus.db"))
	require.NoError(t, err)
	postings, err := fulltext.New(ctx, backend, filepath.Join(dir, "fulltext.bleve"), store)
	require.NoError(t, err)
	engine, err := search.NewEngine(store, postings)
	require.NoError(t, err)

	c := &testCorpus{
		dir:      dir,
		store:    store,
		postings: postings,
		builder:  index.NewBuilder(store, postings, index.WithWorkers(2)),
		engine:   engine,
	}
	t.Cleanup(c.close)
	return c
}

func (c *testCorpus) close() {
	if c.postings != nil {
		_ = c.postings.Close()
		c.postings = nil
	}
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func (c *testCorpus) search(t *testing.T, req search.Request) *search.Response {
	t.Helper()
	resp, err := c.engine.Search(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestIntegration_IngestAndSearch_EveryStrategy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			// Given: the demo corpus ingested on disk
			c := openCorpus(t, t.TempDir(), backend)
			_, err := c.builder.IngestAll(context.Background(), index.DemoCorpus())
			require.NoError(t, err)

			// When/Then: each strategy finds the apostles chapter
			exact := c.search(t, search.Request{Query: "illustrious apostles", Type: search.StrategyExact})
			require.NotEmpty(t, exact.Hits)
			assert.Equal(t, "Clement of Rome", exact.Hits[0].Author)
			assert.Equal(t, 5, exact.Hits[0].ChapterNumber)

			prox := c.search(t, search.Request{Query: "illustrious apostles", Type: search.StrategyProximity})
			require.NotEmpty(t, prox.Hits)
			assert.Equal(t, exact.Hits[0].ChapterID, prox.Hits[0].ChapterID)

			threshold := 0.7
			fuzzy := c.search(t, search.Request{Query: "ilustrious apostels", Type: search.StrategyFuzzy, Threshold: &threshold})
			require.NotEmpty(t, fuzzy.Hits)
			assert.GreaterOrEqual(t, fuzzy.Hits[0].Similarity, threshold)

			boolean := c.search(t, search.Request{Query: "envy AND paul", Type: search.StrategyBoolean})
			require.NotEmpty(t, boolean.Hits)
			assert.Equal(t, exact.Hits[0].ChapterID, boolean.Hits[0].ChapterID)

			combined := c.search(t, search.Request{
				Query:      "illustrious apostles",
				Type:       search.StrategyCombined,
				Strategies: []search.Strategy{search.StrategyExact, search.StrategyBoolean},
			})
			assert.NotEmpty(t, combined.Groups[search.StrategyExact])
			assert.NotEmpty(t, combined.Groups[search.StrategyBoolean])
		})
	}
}

func TestIntegration_ReopenKeepsCorpusAndPostings(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			dir := t.TempDir()

			// Given: a corpus ingested and closed
			first := openCorpus(t, dir, backend)
			_, err := first.builder.IngestAll(context.Background(), index.DemoCorpus())
			require.NoError(t, err)
			first.close()

			// When: reopening the same data dir
			second := openCorpus(t, dir, backend)

			// Then: phrase and full-text lookups still work
			exact := second.search(t, search.Request{Query: "grace of the word", Type: search.StrategyExact})
			assert.NotEmpty(t, exact.Hits)
			boolean := second.search(t, search.Request{Query: "corruption AND death", Type: search.StrategyBoolean})
			assert.NotEmpty(t, boolean.Hits)
		})
	}
}

func TestIntegration_DeleteChapter_ExcludedFromEveryStrategy(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			ctx := context.Background()
			c := openCorpus(t, t.TempDir(), backend)
			_, err := c.builder.IngestAll(ctx, index.DemoCorpus())
			require.NoError(t, err)

			exact := c.search(t, search.Request{Query: "illustrious apostles", Type: search.StrategyExact})
			require.NotEmpty(t, exact.Hits)
			id := exact.Hits[0].ChapterID

			// When: deleting the chapter
			require.NoError(t, c.builder.DeleteChapter(ctx, id))

			// Then: no strategy returns it
			for _, req := range []search.Request{
				{Query: "illustrious apostles", Type: search.StrategyExact},
				{Query: "illustrious apostles", Type: search.StrategyProximity},
				{Query: "envy AND paul", Type: search.StrategyBoolean},
			} {
				resp := c.search(t, req)
				for _, h := range resp.Hits {
					assert.NotEqual(t, id, h.ChapterID, "%s still returns deleted chapter", req.Type)
				}
			}

			_, err = c.store.Chapter(ctx, id)
			assert.Error(t, err)
		})
	}
}

func TestIntegration_EmptyCorpus_ReturnsNoResults(t *testing.T) {
	c := openCorpus(t, t.TempDir(), fulltext.BackendSQLite)

	resp := c.search(t, search.Request{Query: "word of god", Type: search.StrategyExact})

	assert.Empty(t, resp.Hits)
	assert.Zero(t, resp.Total)
}

func TestIntegration_ConcurrentSearches_NoRace(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	c := openCorpus(t, t.TempDir(), fulltext.BackendBleve)
	_, err := c.builder.IngestAll(context.Background(), index.DemoCorpus())
	require.NoError(t, err)

	queries := []search.Request{
		{Query: "illustrious apostles", Type: search.StrategyExact},
		{Query: "grace word", Type: search.StrategyProximity},
		{Query: "late have i loved", Type: search.StrategyFuzzy},
		{Query: "envy OR beauty", Type: search.StrategyBoolean},
		{Query: "greatly to be praised", Type: search.StrategyCombined},
	}

	// When: many goroutines search at once
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 20; i++ {
		req := queries[i%len(queries)]
		g.Go(func() error {
			resp, err := c.engine.Search(ctx, req)
			if err != nil {
				return fmt.Errorf("%s %q: %w", req.Type, req.Query, err)
			}
			if resp.Total == 0 {
				return fmt.Errorf("%s %q: no results", req.Type, req.Query)
			}
			return nil
		})
	}

	// Then: all succeed
	require.NoError(t, g.Wait())
}

func TestIntegration_ConfigDefaults_DriveEngine(t *testing.T) {
	// Given: defaults from a project dir with no config files
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	store, err := corpus.Open(filepath.Join(t.TempDir(), "corpus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	postings, err := fulltext.New(context.Background(), fulltext.Backend(cfg.FullText.Backend), "", store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = postings.Close() })

	// Then: the configured backend and search defaults are usable
	engine, err := search.NewEngine(store, postings)
	require.NoError(t, err)
	assert.Equal(t, cfg.Search.DefaultLimit, engine.Config().DefaultLimit)
}
