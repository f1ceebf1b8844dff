package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/patrology/internal/output"
	"github.com/Aman-CERP/patrology/internal/validation"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		suitePath  string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run golden queries against the corpus",
		Long: `Run a suite of golden queries and report which still find their
expected authors or works. Without --suite the built-in suite for the
demo corpus is used.

Tier 1 and negative queries must pass; tier 2 failures are reported only.`,
		Example: `  patrology index --demo && patrology validate
  patrology validate --suite fathers-queries.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			suite, err := loadSuite(suitePath)
			if err != nil {
				return err
			}

			s, err := a.openCorpus(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			res := validation.NewValidator(s.engine, limit).RunAll(cmd.Context(), suite)
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				printValidation(cmd.OutOrStdout(), res)
			}

			if !res.Passed() {
				return errors.New("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&suitePath, "suite", "", "YAML suite file (default: built-in demo suite)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Results inspected per query")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func loadSuite(path string) (*validation.Suite, error) {
	if path == "" {
		return validation.DemoSuite()
	}
	return validation.LoadSuite(path)
}

func printValidation(w io.Writer, r *validation.Result) {
	out := output.New(w)
	for _, group := range []struct {
		title       string
		results     []validation.TestResult
		pass, total int
	}{
		{"Tier 1", r.Tier1, r.Tier1Pass, r.Tier1Total},
		{"Tier 2", r.Tier2, r.Tier2Pass, r.Tier2Total},
		{"Negative", r.Negative, r.NegPass, r.NegTotal},
	} {
		if group.total == 0 {
			continue
		}
		out.Statusf("🧪", "%s: %d/%d passed", group.title, group.pass, group.total)
		for _, tr := range group.results {
			line := fmt.Sprintf("%s %s (%dms)", tr.Spec.ID, tr.Spec.Name, tr.DurationMS)
			if tr.Passed {
				out.Success(line)
				continue
			}
			out.Error(line)
			if tr.Error != "" {
				out.Statusf("", "   %s", tr.Error)
			} else {
				out.Statusf("", "   expected %v in %v", tr.Spec.Expected, tr.TopResults)
			}
		}
		out.Newline()
	}
}
