package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	// Given: a query error
	err := New(ErrCodeQueryEmpty, "query must not be empty", nil)

	// When: formatting for user
	result := FormatForUser(err, false)

	// Then: contains message and code
	assert.Contains(t, result, "query must not be empty")
	assert.Contains(t, result, "[ERR_404_QUERY_EMPTY]")
}

func TestFormatForUser_DebugShowsCause(t *testing.T) {
	err := StoreError("open corpus", errors.New("permission denied"))

	assert.NotContains(t, FormatForUser(err, false), "permission denied")
	assert.Contains(t, FormatForUser(err, true), "Cause: permission denied")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	err := New(ErrCodeStoreLocked, "data directory is locked", nil).
		WithSuggestion("Wait for the running ingestion to finish")

	result := FormatForUser(err, false)

	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "running ingestion")
}

func TestFormatForUser_StandardAndNil(t *testing.T) {
	assert.Equal(t, "something went wrong", FormatForUser(errors.New("something went wrong"), false))
	assert.Empty(t, FormatForUser(nil, false))
}

func TestFormatForCLI_WrapsStandardError(t *testing.T) {
	result := FormatForCLI(errors.New("boom"))

	assert.Contains(t, result, "Error: boom")
	assert.Contains(t, result, "Code: ERR_501_INTERNAL")
}

func TestFormatJSON_BasicError(t *testing.T) {
	// Given: an ingestion error with details
	err := New(ErrCodeMalformedCorpus, "malformed corpus line", errors.New("unexpected EOF")).
		WithDetail("line", "3").
		WithSuggestion("Check the JSONL file")

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: valid JSON with all fields
	require.NoError(t, jsonErr)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "ERR_303_MALFORMED_CORPUS", parsed["code"])
	assert.Equal(t, "INGESTION", parsed["category"])
	assert.Equal(t, "unexpected EOF", parsed["cause"])
	assert.Equal(t, "3", parsed["details"].(map[string]any)["line"])
}

func TestFormatForLog_IncludesDetails(t *testing.T) {
	err := QueryError("bad expression", nil).WithDetail("expr", "faith AND (")

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeInvalidQuery, fields["error_code"])
	assert.Equal(t, "QUERY", fields["category"])
	assert.Equal(t, "faith AND (", fields["detail_expr"])
	assert.Equal(t, map[string]any{"error": "plain"}, FormatForLog(errors.New("plain")))
}

func TestHTTPStatus_MapsCategories(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"query", QueryError("bad", nil), http.StatusBadRequest},
		{"empty query", New(ErrCodeQueryEmpty, "empty", nil), http.StatusBadRequest},
		{"store", StoreError("io", nil), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
