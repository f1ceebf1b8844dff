package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/patrology/internal/errors"
)

func TestJSONResource_Stats(t *testing.T) {
	srv := newDemoServer(t)

	// When: reading the stats resource handler
	handler := srv.jsonResource(statsURI, func(ctx context.Context) (any, error) {
		st, err := srv.engine.Stats(ctx)
		return toStatsOutput(st), err
	})
	res, err := handler(context.Background(), nil)

	// Then: one JSON document with the corpus counts
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, statsURI, res.Contents[0].URI)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var out StatsOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.Equal(t, int64(3), out.TotalAuthors)
}

func TestJSONResource_MapsErrors(t *testing.T) {
	srv, err := NewServer(&mockSearcher{})
	require.NoError(t, err)

	// When: the loader fails with a store error
	handler := srv.jsonResource(authorsURI, func(context.Context) (any, error) {
		return nil, perrors.StoreError("disk full", nil)
	})
	_, err = handler(context.Background(), nil)

	// Then: the error is an MCP store error
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeStoreUnavailable, mcpErr.Code)
}
