package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patrology/internal/index"
)

const polycarp = `{"author":{"name":"Polycarp of Smyrna","is_saint":true},` +
	`"work":{"title":"Epistle to the Philippians","url":"https://example.org/0136.htm"},` +
	`"chapters":[{"number":1,"title":"Praise","content":"I have greatly rejoiced with you in our Lord Jesus Christ."}]}`

func TestIndexer_IngestJSONLThenRerun(t *testing.T) {
	ctx := context.Background()
	x, err := Open(ctx, t.TempDir())
	require.NoError(t, err)
	defer func() { _ = x.Close() }()

	// When: ingesting the same line twice
	first, err := x.IngestJSONL(ctx, strings.NewReader(polycarp))
	require.NoError(t, err)
	second, err := x.IngestJSONL(ctx, strings.NewReader(polycarp))
	require.NoError(t, err)

	// Then: the rerun skips the chapter
	assert.Equal(t, Summary{Documents: 1, Created: 1}, first)
	assert.Equal(t, Summary{Documents: 1, Skipped: 1}, second)
}

func TestIndexer_SecondWriterIsBusy(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	x, err := Open(ctx, dir)
	require.NoError(t, err)
	defer func() { _ = x.Close() }()

	_, err = Open(ctx, dir)

	assert.True(t, errors.Is(err, ErrBusy))
}

func TestIndexer_IngestDemoWithBleve(t *testing.T) {
	ctx := context.Background()
	x, err := Open(ctx, t.TempDir(), WithBackend("BLEVE"), WithWorkers(2))
	require.NoError(t, err)
	defer func() { _ = x.Close() }()

	sum, err := x.Ingest(ctx, index.DemoCorpus()...)
	require.NoError(t, err)
	assert.Equal(t, len(index.DemoCorpus()), sum.Documents)
	assert.Positive(t, sum.Created)

	n, err := x.RebuildFullText(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum.Created, n)
}
