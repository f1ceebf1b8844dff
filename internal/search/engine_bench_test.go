package search

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/fulltext"
	"github.com/Aman-CERP/patrology/internal/index"
)

var benchVocabulary = strings.Fields(`grace peace church god lord christ spirit word faith
	apostles martyrs holy blessed father son glory truth life death resurrection flesh
	love hope charity wisdom power mercy envy patience endurance salvation kingdom heaven`)

// benchDocs generates authors works with chapters of words random words.
func benchDocs(r *rand.Rand, works, chapters, words int) []index.Document {
	docs := make([]index.Document, 0, works)
	for w := 0; w < works; w++ {
		doc := index.Document{
			Author: corpus.Author{Name: fmt.Sprintf("Father %d", w%25)},
			Work:   corpus.Work{Title: fmt.Sprintf("Treatise %d", w), URL: fmt.Sprintf("https://example.org/%d.htm", w)},
		}
		for c := 1; c <= chapters; c++ {
			var b strings.Builder
			for i := 0; i < words; i++ {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(benchVocabulary[r.Intn(len(benchVocabulary))])
			}
			doc.Chapters = append(doc.Chapters, corpus.Chapter{Number: c, Content: b.String()})
		}
		docs = append(docs, doc)
	}
	return docs
}

func setupBenchEngine(b *testing.B, backend fulltext.Backend, works int) *Engine {
	b.Helper()
	ctx := context.Background()
	dir := b.TempDir()

	store, err := corpus.Open(filepath.Join(dir, "corpus.db"))
	if err != nil {
		b.Fatalf("open store: %v", err)
	}
	b.Cleanup(func() { _ = store.Close() })

	postings, err := fulltext.New(ctx, backend, filepath.Join(dir, "fulltext.bleve"), store)
	if err != nil {
		b.Fatalf("open postings: %v", err)
	}
	b.Cleanup(func() { _ = postings.Close() })

	builder := index.NewBuilder(store, postings)
	if _, err := builder.IngestAll(ctx, benchDocs(rand.New(rand.NewSource(42)), works, 10, 120)); err != nil {
		b.Fatalf("ingest: %v", err)
	}

	e, err := NewEngine(store, postings)
	if err != nil {
		b.Fatalf("engine: %v", err)
	}
	return e
}

func BenchmarkSearch_Strategies(b *testing.B) {
	queries := map[Strategy]string{
		StrategyExact:     "holy spirit",
		StrategyProximity: "grace peace",
		StrategyFuzzy:     "blesed martyrs",
		StrategyBoolean:   "grace AND (faith OR hope) AND NOT envy",
		StrategyCombined:  "lord christ",
	}

	for _, backend := range []fulltext.Backend{fulltext.BackendSQLite, fulltext.BackendBleve} {
		e := setupBenchEngine(b, backend, 50)
		for _, s := range Strategies() {
			b.Run(fmt.Sprintf("%s/%s", backend, s), func(b *testing.B) {
				ctx := context.Background()
				req := Request{Query: queries[s], Type: s}

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := e.Search(ctx, req); err != nil {
						b.Fatalf("search failed: %v", err)
					}
				}
			})
		}
	}
}

func BenchmarkSearch_Parallel(b *testing.B) {
	e := setupBenchEngine(b, fulltext.BackendSQLite, 50)
	reqs := []Request{
		{Query: "holy spirit", Type: StrategyExact},
		{Query: "grace peace", Type: StrategyProximity},
		{Query: "faith OR hope", Type: StrategyBoolean},
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		ctx := context.Background()
		i := 0
		for pb.Next() {
			if _, err := e.Search(ctx, reqs[i%len(reqs)]); err != nil {
				b.Errorf("search failed: %v", err)
				return
			}
			i++
		}
	})
}

func BenchmarkRatio(b *testing.B) {
	a, c := "the illustrious apostles", "ilustrious apostels"
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Ratio(a, c)
	}
}
