package fulltext

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/errors"
)

var testChapters = map[int64]string{
	1: "Let us set before our eyes the illustrious apostles.",
	2: "Grace be with you through our Lord Jesus Christ.",
	3: "The grace of God and the law of Moses.",
	4: "On the Incarnation of the Word.",
}

type backendCase struct {
	name string
	open func(t *testing.T, store *corpus.Store) Postings
}

func backends() []backendCase {
	return []backendCase{
		{"sqlite", func(t *testing.T, store *corpus.Store) Postings {
			p, err := NewSQLite(context.Background(), store)
			require.NoError(t, err)
			return p
		}},
		{"bleve", func(t *testing.T, _ *corpus.Store) Postings {
			p, err := NewBleve(filepath.Join(t.TempDir(), "fulltext.bleve"))
			require.NoError(t, err)
			return p
		}},
	}
}

// postAll stores chapters and their postings; ids in testChapters are the
// ids the fresh store assigns.
func postAll(t *testing.T, store *corpus.Store, p Postings) {
	t.Helper()
	ctx := context.Background()

	authorID, err := store.InsertOrGetAuthor(ctx, corpus.Author{Name: "Test"})
	require.NoError(t, err)
	workID, err := store.InsertOrGetWork(ctx, authorID, corpus.Work{Title: "T", URL: "u"})
	require.NoError(t, err)

	for id := int64(1); id <= int64(len(testChapters)); id++ {
		content := testChapters[id]
		err := store.WithTx(ctx, func(tx *sql.Tx) error {
			got, _, err := corpus.InsertChapter(ctx, tx, workID, corpus.Chapter{Number: int(id), Content: content})
			require.NoError(t, err)
			require.Equal(t, id, got)
			return p.Add(ctx, tx, got, content)
		})
		require.NoError(t, err)
	}
}

func TestPostings_Conformance(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := corpus.Open(filepath.Join(t.TempDir(), "corpus.db"))
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			p := bc.open(t, store)
			defer func() { _ = p.Close() }()
			postAll(t, store, p)

			n, err := p.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			tests := []struct {
				expr string
				want []int64
			}{
				{"grace", []int64{2, 3}},
				{"GRACE", []int64{2, 3}},
				{"grace AND jesus", []int64{2}},
				{"grace NOT moses", []int64{2}},
				{"apostles OR incarnation", []int64{1, 4}},
				{`"illustrious apostles"`, []int64{1}},
				{`"apostles illustrious"`, nil},
				{"incarn*", []int64{4}},
				{"(grace OR word) NOT law", []int64{2, 4}},
				{"nothing", nil},
			}
			for _, tt := range tests {
				got, err := p.Match(ctx, tt.expr, 10)
				require.NoError(t, err, tt.expr)
				assert.Equal(t, tt.want, nilIfEmpty(got), tt.expr)
			}

			got, err := p.Match(ctx, "grace OR apostles OR word", 2)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 2}, got, "limit keeps the lowest ids")

			got, err = p.MatchAny(ctx, []string{"jesus", "moses"}, 10)
			require.NoError(t, err)
			assert.Equal(t, []int64{2, 3}, got)

			got, err = p.MatchAny(ctx, []string{"..."}, 10)
			require.NoError(t, err)
			assert.Empty(t, got)

			_, err = p.Match(ctx, "grace AND", 10)
			assert.True(t, errors.IsQuery(err))
		})
	}
}

func TestPostings_RemoveAndReset(t *testing.T) {
	for _, bc := range backends() {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			store, err := corpus.Open(filepath.Join(t.TempDir(), "corpus.db"))
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			p := bc.open(t, store)
			defer func() { _ = p.Close() }()
			postAll(t, store, p)

			require.NoError(t, store.WithTx(ctx, func(tx *sql.Tx) error {
				if err := p.Remove(ctx, tx, 2); err != nil {
					return err
				}
				return p.Remove(ctx, tx, 99)
			}))

			got, err := p.Match(ctx, "grace", 10)
			require.NoError(t, err)
			assert.Equal(t, []int64{3}, got)

			require.NoError(t, p.Reset(ctx))
			n, err := p.Count(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestSQLitePostings_RollbackDiscardsPosting(t *testing.T) {
	ctx := context.Background()
	store, err := corpus.Open("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	p, err := NewSQLite(ctx, store)
	require.NoError(t, err)
	assert.True(t, p.Transactional())

	err = store.WithTx(ctx, func(tx *sql.Tx) error {
		require.NoError(t, p.Add(ctx, tx, 42, "ephemeral words"))
		return errors.IngestionError("abort", nil)
	})
	require.Error(t, err)

	got, err := p.Match(ctx, "ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBlevePostings_ReopenKeepsPostings(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fulltext.bleve")

	p, err := NewBleve(path)
	require.NoError(t, err)
	assert.False(t, p.Transactional())
	require.NoError(t, p.Add(ctx, nil, 7, "the word became flesh"))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	p, err = NewBleve(path)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	got, err := p.Match(ctx, "flesh", 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, got)
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()
	store, err := corpus.Open("")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	p, err := New(ctx, BackendSQLite, "", store)
	require.NoError(t, err)
	assert.IsType(t, &SQLitePostings{}, p)

	p, err = New(ctx, BackendBleve, "/ignored/for/memory", store)
	require.NoError(t, err)
	assert.IsType(t, &BlevePostings{}, p)
	_ = p.Close()

	_, err = New(ctx, "elastic", "", store)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func nilIfEmpty(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func TestNewBleve_ForeignDirectoryIsLeftIntact(t *testing.T) {
	// Given a data directory holding a database but no index
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "corpus.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0o644))

	// When it is opened as a bleve index
	_, err := NewBleve(dir)

	// Then opening fails and the directory keeps its contents
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStoreUnavailable, errors.GetCode(err))
	data, statErr := os.ReadFile(dbPath)
	require.NoError(t, statErr)
	assert.Equal(t, "sqlite", string(data))
}

func TestNewBleve_CorruptIndexIsRecreated(t *testing.T) {
	// Given an index directory whose metadata is truncated
	path := filepath.Join(t.TempDir(), "fulltext.bleve")
	p, err := NewBleve(path)
	require.NoError(t, err)
	require.NoError(t, p.Add(context.Background(), nil, 1, "grace and peace"))
	require.NoError(t, p.Close())
	require.NoError(t, os.WriteFile(filepath.Join(path, "index_meta.json"), nil, 0o644))

	// When it is reopened
	p, err = NewBleve(path)

	// Then an empty index replaces it
	require.NoError(t, err)
	defer func() { _ = p.Close() }()
	n, err := p.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewBleve_EmptyDirectoryBecomesIndex(t *testing.T) {
	dir := t.TempDir()

	p, err := NewBleve(dir)

	require.NoError(t, err)
	defer func() { _ = p.Close() }()
	assert.FileExists(t, filepath.Join(dir, "index_meta.json"))
}
