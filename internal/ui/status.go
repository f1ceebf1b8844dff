package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// StatusInfo describes the corpus database and its indexes.
type StatusInfo struct {
	DataDir  string `json:"data_dir"`
	Database string `json:"database"`
	Backend  string `json:"fulltext_backend"`

	Authors                int64 `json:"authors"`
	Works                  int64 `json:"works"`
	Chapters               int64 `json:"chapters"`
	UniquePhrases          int64 `json:"unique_phrases"`
	TotalPhraseOccurrences int64 `json:"phrase_occurrences"`
	Trigrams               int64 `json:"trigrams"`

	LastIndexed time.Time `json:"last_indexed,omitzero"`

	// Storage sizes in bytes
	DatabaseSize int64 `json:"database_size"`
	FullTextSize int64 `json:"fulltext_size"`
	TotalSize    int64 `json:"total_size"`

	// WatcherStatus is "running", "stopped" or "n/a".
	WatcherStatus string `json:"watcher_status,omitempty"`
}

// StatusRenderer displays corpus status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Corpus Status: "+info.DataDir))

	_, _ = fmt.Fprintf(r.out, "  Authors:        %d\n", info.Authors)
	_, _ = fmt.Fprintf(r.out, "  Works:          %d\n", info.Works)
	_, _ = fmt.Fprintf(r.out, "  Chapters:       %d\n", info.Chapters)
	_, _ = fmt.Fprintf(r.out, "  Unique phrases: %d (%d occurrences)\n", info.UniquePhrases, info.TotalPhraseOccurrences)
	_, _ = fmt.Fprintf(r.out, "  Trigrams:       %d\n", info.Trigrams)
	if !info.LastIndexed.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Last indexed:   %s\n", formatTime(info.LastIndexed))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Storage:")
	_, _ = fmt.Fprintf(r.out, "    Database:  %s\n", FormatBytes(info.DatabaseSize))
	_, _ = fmt.Fprintf(r.out, "    Full-text: %s (%s)\n", FormatBytes(info.FullTextSize), info.Backend)
	_, _ = fmt.Fprintf(r.out, "    Total:     %s\n", FormatBytes(info.TotalSize))

	if info.WatcherStatus != "" && info.WatcherStatus != "n/a" {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintf(r.out, "  Watcher: %s\n", r.renderStatus(info.WatcherStatus))
	}
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running":
		return r.styles.Success.Render(status)
	case "offline", "stopped":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
