package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/Aman-CERP/patrology/internal/errors"
)

func TestMapError_NilError(t *testing.T) {
	assert.Nil(t, MapError(nil))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "empty query",
			err:      perrors.New(perrors.ErrCodeQueryEmpty, "query must not be empty", nil),
			wantCode: ErrCodeInvalidParams,
			wantMsg:  "query must not be empty",
		},
		{
			name: "query error keeps suggestion",
			err: perrors.New(perrors.ErrCodeInvalidStrategy, "unknown search type \"x\"", nil).
				WithSuggestion("Use one of: exact"),
			wantCode: ErrCodeInvalidParams,
			wantMsg:  "Use one of: exact",
		},
		{
			name:     "not found",
			err:      perrors.New(perrors.ErrCodeNotFound, "chapter 9 not found", nil),
			wantCode: ErrCodeNotFound,
			wantMsg:  "chapter 9 not found",
		},
		{
			name:     "wrapped query error",
			err:      fmt.Errorf("tool: %w", perrors.QueryError("bad distance", nil)),
			wantCode: ErrCodeInvalidParams,
			wantMsg:  "bad distance",
		},
		{
			name:     "store error",
			err:      perrors.StoreError("database is locked", nil),
			wantCode: ErrCodeStoreUnavailable,
			wantMsg:  "Corpus store unavailable.",
		},
		{
			name:     "internal error",
			err:      perrors.InternalError("no dispatch", nil),
			wantCode: ErrCodeInternalError,
			wantMsg:  "Internal server error.",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: ErrCodeTimeout,
			wantMsg:  "timed out",
		},
		{
			name:     "canceled",
			err:      fmt.Errorf("search: %w", context.Canceled),
			wantCode: ErrCodeTimeout,
			wantMsg:  "canceled",
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: ErrCodeInternalError,
			wantMsg:  "Internal server error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When: mapping the error
			got := MapError(tt.err)

			// Then: the code and message match
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Contains(t, got.Message, tt.wantMsg)
		})
	}
}

func TestMapError_PassesThroughMCPError(t *testing.T) {
	// Given: an error that is already an MCP error
	orig := NewInvalidParamsError("limit must be positive")

	// When: mapping it again
	got := MapError(fmt.Errorf("wrapped: %w", orig))

	// Then: it is returned unchanged
	assert.Same(t, orig, got)
}

func TestMCPError_Error(t *testing.T) {
	err := NewResourceNotFoundError("patrology://nope")

	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Contains(t, err.Error(), "patrology://nope")
	assert.Contains(t, NewMethodNotFoundError("x").Error(), "Tool 'x' not found.")
}
