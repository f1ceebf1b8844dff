package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/patrology/internal/corpus"
)

func TestCheckStatus_JSONName(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "disk_space", Status: StatusWarn})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"warn"`)
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name   string
		result CheckResult
		want   bool
	}{
		{"required pass", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail", CheckResult{Status: StatusFail}, false},
		{"required warn", CheckResult{Status: StatusWarn, Required: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.IsCritical())
		})
	}
}

func TestChecker_SummaryStatus(t *testing.T) {
	c := New()

	assert.Equal(t, "ready", c.SummaryStatus([]CheckResult{{Status: StatusPass}}))
	assert.Equal(t, "ready_with_warnings", c.SummaryStatus([]CheckResult{
		{Status: StatusPass}, {Status: StatusWarn},
	}))
	assert.Equal(t, "failed", c.SummaryStatus([]CheckResult{
		{Status: StatusWarn}, {Status: StatusFail, Required: true},
	}))
}

func TestChecker_RunAll_FreshDataDir(t *testing.T) {
	// Given: a data dir that does not exist yet
	dir := filepath.Join(t.TempDir(), "data")
	c := New(WithMinDiskSpace(1))

	// When: running every check
	results := c.RunAll(context.Background(), dir, filepath.Join(dir, "corpus.db"))

	// Then: the dir is created and nothing is critical
	require.DirExists(t, dir)
	require.Len(t, results, 4)
	assert.False(t, c.HasCriticalFailures(results))

	byName := map[string]CheckResult{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.Equal(t, StatusPass, byName["write_permissions"].Status)
	assert.Equal(t, "not created yet", byName["corpus_database"].Message)
}

func TestChecker_CheckDatabase_ReportsCounts(t *testing.T) {
	// Given: an existing, empty corpus
	dbPath := filepath.Join(t.TempDir(), "corpus.db")
	store, err := corpus.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// When: checking it
	r := New().CheckDatabase(context.Background(), dbPath)

	// Then: it passes with zero counts
	assert.Equal(t, StatusPass, r.Status)
	assert.Equal(t, "0 authors, 0 works, 0 chapters", r.Message)
}

func TestChecker_CheckDiskSpace_BelowMinimum(t *testing.T) {
	c := New(WithMinDiskSpace(math.MaxUint64))

	r := c.CheckDiskSpace(t.TempDir())

	assert.Equal(t, StatusFail, r.Status)
	assert.True(t, r.IsCritical())
	assert.NotEmpty(t, r.Details)
}

func TestChecker_CheckWritePermissions_ReadOnlyDir(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	r := New().CheckWritePermissions(dir)

	assert.Equal(t, StatusFail, r.Status)
	assert.Contains(t, r.Message, "permission denied")
}

func TestChecker_PrintResults(t *testing.T) {
	var buf bytes.Buffer
	c := New(WithOutput(&buf), WithVerbose(true))

	c.PrintResults([]CheckResult{
		{Name: "disk_space", Status: StatusPass, Message: "2.0 GB free"},
		{Name: "file_descriptors", Status: StatusWarn, Message: "128 (minimum: 256)", Details: "raise it"},
	})

	out := buf.String()
	assert.Contains(t, out, "Patrology System Check")
	assert.Contains(t, out, "disk_space: 2.0 GB free")
	assert.Contains(t, out, "raise it")
	assert.Contains(t, out, "Status: READY_WITH_WARNINGS")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "100.0 MB", formatBytes(MinDiskSpaceBytes))
	assert.Equal(t, "2.0 GB", formatBytes(2<<30))
}
