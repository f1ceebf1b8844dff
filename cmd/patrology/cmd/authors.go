package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patrology/internal/corpus"
	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/index"
	"github.com/Aman-CERP/patrology/internal/output"
	"github.com/Aman-CERP/patrology/internal/search"
	"github.com/Aman-CERP/patrology/internal/ui"
)

func newAuthorsCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "authors",
		Short: "List the authors of the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openCorpus(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			authors, err := s.engine.Authors(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				if authors == nil {
					authors = []corpus.AuthorSummary{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(authors)
			}
			return printAuthors(cmd.OutOrStdout(), authors)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printAuthors(w io.Writer, authors []corpus.AuthorSummary) error {
	if len(authors) == 0 {
		_, err := fmt.Fprintln(w, "No authors indexed. Run 'patrology index --demo' to get started.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "AUTHOR\tDATES\tWORKS\t")
	for _, au := range authors {
		name := au.Name
		if au.IsSaint {
			name = "St. " + name
		}
		if au.IsDoctor {
			name += " (Doctor)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t\n", name, au.Dates, au.WorkCount)
	}
	return tw.Flush()
}

func newChaptersCmd(a *app) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "chapters <author> [phrase]",
		Short: "Browse an author's chapters, optionally containing a phrase",
		Long: `List chapters by authors whose name contains <author>. With a phrase,
only chapters containing it are listed, with the phrase in context.

Examples:
  patrology chapters clement
  patrology chapters athanasius "word of god" --limit 5`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrase := ""
			if len(args) == 2 {
				phrase = args[1]
			}

			s, err := a.openCorpus(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			hits, err := s.engine.AuthorChapters(cmd.Context(), args[0], phrase, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if hits == nil {
					hits = []search.Hit{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(hits)
			}
			if len(hits) == 0 {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "No chapters found for %q\n", args[0])
				return err
			}
			styles := ui.GetStyles(ui.DetectNoColor() || !ui.IsTTY(cmd.OutOrStdout()))
			printHits(cmd.OutOrStdout(), hits, styles)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of chapters (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chapter-id>",
		Short: "Remove a chapter with its phrases, trigrams and full-text posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return perrors.New(perrors.ErrCodeInvalidInput, fmt.Sprintf("invalid chapter id %q", args[0]), err).
					WithSuggestion("Chapter ids are shown by 'patrology search --format json'")
			}

			s, err := a.openCorpus(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			builder := index.NewBuilder(s.store, s.postings)
			if err := builder.DeleteChapter(cmd.Context(), id); err != nil {
				return err
			}
			output.New(cmd.OutOrStdout()).Successf("Deleted chapter %d", id)
			return nil
		},
	}
}
