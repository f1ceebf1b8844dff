// Package ui renders ingestion progress and corpus status in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage is one step of an ingestion run.
type Stage int

const (
	// StageLoading reads and validates corpus files.
	StageLoading Stage = iota
	// StageIndexing stores chapters with their phrase and trigram entries.
	StageIndexing
	// StageFullText re-posts every chapter to the full-text backend.
	StageFullText
	// StageComplete indicates the run finished.
	StageComplete
)

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "Loading"
	case StageIndexing:
		return "Indexing"
	case StageFullText:
		return "Full-text"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageLoading:
		return "LOAD"
	case StageIndexing:
		return "INDEX"
	case StageFullText:
		return "FTS"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent reports chapters done within a stage.
type ProgressEvent struct {
	Stage   Stage
	Current int
	Total   int
	// Work is the title of the work the last chapter belongs to.
	Work    string
	Message string
}

// ErrorEvent is a failure while loading or indexing a source.
type ErrorEvent struct {
	Source string
	Err    error
	IsWarn bool
}

// StageTimings records the duration of each stage.
type StageTimings struct {
	Load     time.Duration
	Index    time.Duration
	FullText time.Duration
}

// CompletionStats summarizes an ingestion run.
type CompletionStats struct {
	Documents int
	Chapters  int
	Created   int
	Skipped   int
	Phrases   int
	Trigrams  int
	Duration  time.Duration
	Errors    int
	Warnings  int
	Stages    StageTimings
}

// Renderer displays ingestion progress.
type Renderer interface {
	Start(ctx context.Context) error
	UpdateProgress(event ProgressEvent)
	AddError(event ErrorEvent)
	Complete(stats CompletionStats)
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool
	// DataDir is shown in the TUI header.
	DataDir string
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithDataDir sets the data directory shown in the header.
func WithDataDir(dir string) ConfigOption {
	return func(c *Config) {
		c.DataDir = dir
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer picks the TUI for interactive terminals and plain text for
// pipes, CI and --no-tui.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
