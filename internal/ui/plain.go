package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
	// every prints only each n-th chapter of large stages.
	every int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, every: 1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
// Format: [STAGE] current/total - work or message
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.stage {
		r.stage = event.Stage
		r.every = max(event.Total/20, 1)
	}

	msg := event.Message
	if msg == "" {
		msg = event.Work
	}

	switch {
	case event.Total > 0:
		if event.Current%r.every != 0 && event.Current != event.Total {
			return
		}
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	case msg != "":
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}
	if event.Source != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.Source, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d works, %d chapters (%d new, %d unchanged) in %s",
		stats.Documents, stats.Chapters, stats.Created, stats.Skipped, stats.Duration.Round(100*time.Millisecond))
	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	_, _ = fmt.Fprintln(r.out)

	if stats.Phrases > 0 || stats.Trigrams > 0 {
		_, _ = fmt.Fprintf(r.out, "Indexed: %d phrases, %d trigrams\n", stats.Phrases, stats.Trigrams)
	}

	if stats.Stages.Index > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "Stage Breakdown:")
		_, _ = fmt.Fprintf(r.out, "  Load:      %s\n", stats.Stages.Load.Round(time.Millisecond))
		rate := ""
		if stats.Chapters > 0 {
			rate = fmt.Sprintf(" (%.1f chapters/sec)", float64(stats.Chapters)/stats.Stages.Index.Seconds())
		}
		_, _ = fmt.Fprintf(r.out, "  Index:     %s%s\n", stats.Stages.Index.Round(time.Millisecond), rate)
		if stats.Stages.FullText > 0 {
			_, _ = fmt.Fprintf(r.out, "  Full-text: %s\n", stats.Stages.FullText.Round(time.Millisecond))
		}
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
