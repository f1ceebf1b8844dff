package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/search"
	"github.com/Aman-CERP/patrology/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	searchType string
	limit      int
	author     string
	strategies []string
	distance   int
	threshold  float64
	format     string // "text", "json"
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus for a phrase",
		Long: `Search the corpus with one of five strategies:

  exact      the phrase as indexed (2 to 10 words)
  proximity  every word within --distance words of each other
  fuzzy      phrases at least --threshold similar
  boolean    AND, OR, NOT and parentheses over words
  combined   several strategies at once, grouped by strategy

Examples:
  patrology search "illustrious apostles"
  patrology search "grace peace" --type proximity --distance 3
  patrology search "ilustrious apostels" --type fuzzy --threshold 0.7
  patrology search "faith AND (works OR love)" --type boolean
  patrology search "church" --type combined --strategies exact,fuzzy --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.searchType, "type", "t", "exact", "Strategy: exact, proximity, fuzzy, boolean, combined")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results per strategy (default from config)")
	cmd.Flags().StringVarP(&opts.author, "author", "a", "", "Only chapters whose author name contains this text")
	cmd.Flags().StringSliceVarP(&opts.strategies, "strategies", "s", nil, "Strategies for combined search (comma separated)")
	cmd.Flags().IntVar(&opts.distance, "distance", 0, "Proximity: maximum words between terms (default from config)")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "Fuzzy: minimum similarity 0-1 (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// request builds the engine request. Flags left at their zero value fall
// back to the configured defaults.
func (o searchOptions) request(cmd *cobra.Command, query string) (search.Request, error) {
	t, err := search.ParseStrategy(o.searchType)
	if err != nil {
		return search.Request{}, err
	}
	req := search.Request{
		Query:  query,
		Type:   t,
		Limit:  o.limit,
		Author: strings.TrimSpace(o.author),
	}
	if len(o.strategies) > 0 {
		if req.Strategies, err = search.ParseStrategies(o.strategies); err != nil {
			return req, err
		}
	}
	if cmd.Flags().Changed("distance") {
		d := o.distance
		req.MaxDistance = &d
	}
	if cmd.Flags().Changed("threshold") {
		th := o.threshold
		req.Threshold = &th
	}
	return req, nil
}

func (a *app) runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	ctx := cmd.Context()

	if opts.format != "text" && opts.format != "json" {
		return perrors.New(perrors.ErrCodeInvalidInput, fmt.Sprintf("unknown format %q", opts.format), nil).
			WithSuggestion("Use --format text or --format json")
	}
	if cmd.Flags().Changed("limit") && opts.limit <= 0 {
		return perrors.New(perrors.ErrCodeInvalidLimit, fmt.Sprintf("limit must be positive, got %d", opts.limit), nil)
	}

	req, err := opts.request(cmd, query)
	if err != nil {
		return err
	}

	s, err := a.openCorpus(ctx, false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	slog.Info("search_started", slog.String("query", query), slog.String("type", req.Type.String()))

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp, ui.GetStyles(ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout())))
	return nil
}

// printResponse renders hits for the terminal, grouped by strategy for
// combined searches.
func printResponse(w io.Writer, resp *search.Response, styles ui.Styles) {
	if resp.Total == 0 {
		fmt.Fprintf(w, "No results found for %q\n", resp.Query)
		return
	}

	fmt.Fprintln(w, styles.Header.Render(fmt.Sprintf("%d results for %q (%s, %dms)",
		resp.Total, resp.Query, resp.Type, resp.TookMS)))
	fmt.Fprintln(w)

	if resp.Groups == nil {
		printHits(w, resp.Hits, styles)
		return
	}
	for _, st := range search.Strategies() {
		hits, ok := resp.Groups[st]
		if !ok {
			continue
		}
		fmt.Fprintln(w, styles.Stage.Render(fmt.Sprintf("── %s (%d) ──", st, len(hits))))
		if len(hits) == 0 {
			fmt.Fprintln(w, styles.Dim.Render("  no matches"))
		}
		printHits(w, hits, styles)
		fmt.Fprintln(w)
	}
}

func printHits(w io.Writer, hits []search.Hit, styles ui.Styles) {
	for i, h := range hits {
		fmt.Fprintf(w, "%d. %s, %s", i+1, styles.Author.Render(h.Author), styles.Work.Render(h.Work))
		if h.ChapterTitle != "" {
			fmt.Fprintf(w, " (%s)", h.ChapterTitle)
		} else {
			fmt.Fprintf(w, " (chapter %d)", h.ChapterNumber)
		}
		fmt.Fprintln(w)

		switch h.Strategy {
		case search.StrategyFuzzy:
			fmt.Fprintf(w, "   %s %s\n", styles.Match.Render(h.MatchedPhrase), styles.Dim.Render(fmt.Sprintf("%.0f%%", h.Similarity*100)))
		case search.StrategyProximity:
			fmt.Fprintf(w, "   %s\n", styles.Dim.Render(fmt.Sprintf("span %d words", h.Distance)))
		}
		if h.Context != "" {
			fmt.Fprintf(w, "   %s\n", h.Context)
		}
		if h.URL != "" {
			fmt.Fprintf(w, "   %s\n", styles.URL.Render(h.URL))
		}
	}
}
