package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patrology/internal/output"
	"github.com/Aman-CERP/patrology/internal/telemetry"
	"github.com/Aman-CERP/patrology/internal/ui"
)

func newStatsCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Long:  `Display the size of the corpus and its phrase, trigram and full-text indexes.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStats(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.AddCommand(newStatsQueriesCmd(a))
	return cmd
}

func (a *app) runStats(cmd *cobra.Command, jsonOutput bool) error {
	s, err := a.openCorpus(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	st, err := s.engine.Stats(cmd.Context())
	if err != nil {
		return err
	}

	info := ui.StatusInfo{
		DataDir:                a.cfg.Paths.DataDir,
		Database:               a.cfg.DatabasePath(),
		Backend:                strings.ToLower(a.cfg.FullText.Backend),
		Authors:                st.TotalAuthors,
		Works:                  st.TotalWorks,
		Chapters:               st.TotalChapters,
		UniquePhrases:          st.UniquePhrases,
		TotalPhraseOccurrences: st.TotalPhraseOccurrences,
		Trigrams:               st.TotalTrigrams,
	}
	if fi, err := os.Stat(a.cfg.DatabasePath()); err == nil {
		info.DatabaseSize = fi.Size()
		info.LastIndexed = fi.ModTime()
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if fi, err := os.Stat(a.cfg.DatabasePath() + suffix); err == nil {
			info.DatabaseSize += fi.Size()
		}
	}
	info.FullTextSize = dirSize(a.cfg.BleveDir())
	info.TotalSize = info.DatabaseSize + info.FullTextSize

	r := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
	if jsonOutput {
		return r.RenderJSON(info)
	}
	return r.Render(info)
}

// dirSize sums regular file sizes under dir. A missing dir is empty.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if fi, err := d.Info(); err == nil {
				total += fi.Size()
			}
		}
		return nil
	})
	return total
}

func newStatsQueriesCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		days       int
		top        int
	)

	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Show query statistics",
		Long: `Display persisted query telemetry:
  - Queries per search strategy
  - Top query terms
  - Recent zero-result queries
  - Latency distribution`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runStatsQueries(cmd, jsonOutput, days, top)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	cmd.Flags().IntVar(&top, "top", 10, "Number of terms and zero-result queries to show")

	return cmd
}

// StatsQueriesOutput is the JSON output format for query stats.
type StatsQueriesOutput struct {
	Summary             StatsQueriesSummary   `json:"summary"`
	QueryTypeCounts     map[string]int64      `json:"query_type_counts"`
	TopTerms            []telemetry.TermCount `json:"top_terms"`
	ZeroResultQueries   []string              `json:"zero_result_queries"`
	LatencyDistribution map[string]int64      `json:"latency_distribution"`
}

// StatsQueriesSummary provides overview statistics.
type StatsQueriesSummary struct {
	TotalQueries  int64   `json:"total_queries"`
	Days          int     `json:"days"`
	ZeroResultPct float64 `json:"zero_result_pct"`
}

func (a *app) runStatsQueries(cmd *cobra.Command, jsonOutput bool, days, top int) error {
	if days <= 0 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}

	s, err := a.openCorpus(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	metricsStore, err := telemetry.NewSQLiteMetricsStore(s.store.DB())
	if err != nil {
		return fmt.Errorf("failed to open metrics store: %w", err)
	}

	now := time.Now()
	from := now.AddDate(0, 0, -(days - 1)).Format("2006-01-02")
	snap, err := telemetry.LoadSnapshot(metricsStore, from, now.Format("2006-01-02"), top)
	if err != nil {
		return fmt.Errorf("failed to load query stats: %w", err)
	}

	out := StatsQueriesOutput{
		Summary: StatsQueriesSummary{
			TotalQueries:  snap.TotalQueries,
			Days:          days,
			ZeroResultPct: snap.ZeroResultPercentage(),
		},
		QueryTypeCounts:     make(map[string]int64, len(snap.QueryTypeCounts)),
		TopTerms:            snap.TopTerms,
		ZeroResultQueries:   snap.ZeroResultQueries,
		LatencyDistribution: make(map[string]int64, len(snap.LatencyDistribution)),
	}
	for qt, n := range snap.QueryTypeCounts {
		out.QueryTypeCounts[string(qt)] = n
	}
	for b, n := range snap.LatencyDistribution {
		out.LatencyDistribution[string(b)] = n
	}
	if out.TopTerms == nil {
		out.TopTerms = []telemetry.TermCount{}
	}
	if out.ZeroResultQueries == nil {
		out.ZeroResultQueries = []string{}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printQueryStats(cmd.OutOrStdout(), out)
	return nil
}

func printQueryStats(w io.Writer, s StatsQueriesOutput) {
	out := output.New(w)
	out.Statusf("📊", "Query statistics (last %d days)", s.Summary.Days)
	out.Newline()

	if s.Summary.TotalQueries == 0 {
		out.Status("", "No queries recorded yet.")
		return
	}

	out.Fields(
		output.Field{Label: "Total queries", Value: s.Summary.TotalQueries},
		output.Field{Label: "Zero results", Value: fmt.Sprintf("%.1f%%", s.Summary.ZeroResultPct)},
	)
	out.Newline()

	out.Status("", "By strategy:")
	var byType []output.Field
	for _, qt := range []telemetry.QueryType{
		telemetry.QueryTypeExact, telemetry.QueryTypeProximity, telemetry.QueryTypeFuzzy,
		telemetry.QueryTypeBoolean, telemetry.QueryTypeCombined,
	} {
		if n, ok := s.QueryTypeCounts[string(qt)]; ok {
			byType = append(byType, output.Field{Label: string(qt), Value: n})
		}
	}
	out.Fields(byType...)
	out.Newline()

	out.Status("", "Latency:")
	buckets := []struct {
		bucket telemetry.LatencyBucket
		label  string
	}{
		{telemetry.BucketP10, "<10ms"},
		{telemetry.BucketP50, "10-50ms"},
		{telemetry.BucketP100, "50-100ms"},
		{telemetry.BucketP500, "100-500ms"},
		{telemetry.BucketP1000, ">=500ms"},
	}
	var latency []output.Field
	for _, b := range buckets {
		latency = append(latency, output.Field{Label: b.label, Value: s.LatencyDistribution[string(b.bucket)]})
	}
	out.Fields(latency...)

	if len(s.TopTerms) > 0 {
		out.Newline()
		out.Status("", "Top terms:")
		terms := make([]output.Field, 0, len(s.TopTerms))
		for _, tc := range s.TopTerms {
			terms = append(terms, output.Field{Label: tc.Term, Value: tc.Count})
		}
		out.Fields(terms...)
	}

	if len(s.ZeroResultQueries) > 0 {
		out.Newline()
		out.Status("", "Recent zero-result queries:")
		for _, q := range s.ZeroResultQueries {
			out.Statusf("", "  %q", q)
		}
	}
}
