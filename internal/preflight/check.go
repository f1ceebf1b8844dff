package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/output"
)

// CheckStatus represents the result of a preflight check.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical problem.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the lower-case name used in JSON output.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CheckResult holds the result of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical returns true if this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker performs preflight checks.
type Checker struct {
	verbose      bool
	out          io.Writer
	minDiskBytes uint64
	minFDs       uint64
}

// Option configures a Checker.
type Option func(*Checker)

// WithVerbose prints details under each result.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput sets the writer used by PrintResults.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.out = w
	}
}

// WithMinDiskSpace overrides the free space required under the data dir.
func WithMinDiskSpace(bytes uint64) Option {
	return func(c *Checker) {
		c.minDiskBytes = bytes
	}
}

// New creates a Checker with the given options.
func New(opts ...Option) *Checker {
	c := &Checker{
		out:          os.Stdout,
		minDiskBytes: MinDiskSpaceBytes,
		minFDs:       MinFileDescriptors,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check against dataDir and the corpus database at dbPath.
// dataDir is created when missing so that space and permissions can be probed.
func (c *Checker) RunAll(ctx context.Context, dataDir, dbPath string) []CheckResult {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return []CheckResult{{
			Name:     "data_dir",
			Status:   StatusFail,
			Message:  fmt.Sprintf("cannot create %s: %v", dataDir, err),
			Required: true,
		}}
	}

	return []CheckResult{
		c.CheckDiskSpace(dataDir),
		c.CheckWritePermissions(dataDir),
		c.CheckFileDescriptors(),
		c.CheckDatabase(ctx, dbPath),
	}
}

// HasCriticalFailures returns true if any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// SummaryStatus returns "ready", "ready_with_warnings" or "failed".
func (c *Checker) SummaryStatus(results []CheckResult) string {
	warned := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status != StatusPass {
			warned = true
		}
	}
	if warned {
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	out := output.New(c.out)
	out.Status("🩺", "Patrology System Check")
	out.Newline()

	for _, r := range results {
		line := fmt.Sprintf("%s: %s", r.Name, r.Message)
		switch {
		case r.Status == StatusPass:
			out.Success(line)
		case r.IsCritical():
			out.Error(line)
		default:
			out.Warning(line)
		}
		if c.verbose && r.Details != "" {
			out.Statusf("", "   %s", r.Details)
		}
	}

	out.Newline()
	out.Statusf("", "Status: %s", strings.ToUpper(c.SummaryStatus(results)))
}

// CheckWritePermissions probes dir by creating and removing a file in it.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{Name: "write_permissions", Required: true}

	f, err := os.CreateTemp(dir, ".patrology-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = "OK"
	return result
}

// CheckDatabase opens the corpus at dbPath and reports its size.
// A database that does not exist yet passes; one that fails the integrity
// check is a critical failure.
func (c *Checker) CheckDatabase(ctx context.Context, dbPath string) CheckResult {
	result := CheckResult{Name: "corpus_database", Required: true}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		result.Status = StatusPass
		result.Message = "not created yet"
		result.Details = dbPath
		return result
	}

	store, err := corpus.Open(dbPath, corpus.WithMaxOpenConns(1))
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot open: %v", err)
		result.Details = "Delete " + filepath.Dir(dbPath) + " and re-run 'patrology index' to rebuild it"
		return result
	}
	defer func() { _ = store.Close() }()

	st, err := store.Stats(ctx)
	if err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("opened but stats failed: %v", err)
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%d authors, %d works, %d chapters", st.TotalAuthors, st.TotalWorks, st.TotalChapters)
	result.Details = dbPath
	return result
}
