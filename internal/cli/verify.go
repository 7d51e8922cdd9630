package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ankicheck/internal/harness"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Source scenarioSource
}

// VerifyReport is the JSON payload of a verify run.
type VerifyReport struct {
	Results []*harness.Result `json:"results"`
	Passed  int               `json:"passed"`
	Failed  int               `json:"failed"`
	Skipped int               `json:"skipped"`
}

// newVerifyReport tallies results. A skipped result counts as skipped,
// not failed.
func newVerifyReport(results []*harness.Result) *VerifyReport {
	r := &VerifyReport{Results: results}
	for _, res := range results {
		switch {
		case res.Skipped:
			r.Skipped++
		case res.Pass:
			r.Passed++
		default:
			r.Failed++
		}
	}
	return r
}

// OK reports whether no scenario failed.
func (r *VerifyReport) OK() bool {
	return r.Failed == 0
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify [scenario-path...]",
		Short: "Verify a collection against its scenarios",
		Long: `Run verification scenarios against synced Anki collections.

Each path is a scenario YAML file or a directory of them. Without paths,
the default inline-notes scenario runs against --collection and --document.

A scenario whose collection does not exist is skipped. Exit status is 0
when nothing failed, 1 when a check failed and 2 on command errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source.Paths = args
			return runVerify(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Source.Collection, "collection", "", "collection.anki2 for the default scenario")
	cmd.Flags().StringVar(&opts.Source.Document, "document", "", "reference markdown document for the default scenario")
	cmd.Flags().StringVar(&opts.Source.Deck, "deck", "", "deck to check (overrides scenarios and config)")
	cmd.Flags().StringVar(&opts.Source.Filter, "filter", "", "only run scenario files whose name contains this")

	return cmd
}

func runVerify(ctx context.Context, opts *VerifyOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	scenarios, err := opts.Source.load(opts.Config.Verify.Deck)
	if err != nil {
		return f.Fail(ExitCommandError, CodeScenario, "loading scenarios", err)
	}
	f.VerboseLog("Loaded %d scenario(s)", len(scenarios))

	report, err := verifyOnce(ctx, opts.RootOptions, scenarios)
	if err != nil {
		return f.Fail(ExitCommandError, CodeRun, "running scenarios", err)
	}

	if err := writeReport(f, report); err != nil {
		return WrapExitError(ExitCommandError, "writing report", err)
	}
	if !report.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", report.Failed))
	}
	return nil
}

// verifyOnce runs every scenario with the configured logger and syntax.
func verifyOnce(ctx context.Context, opts *RootOptions, scenarios []*harness.Scenario) (*VerifyReport, error) {
	results, err := harness.RunAll(ctx, scenarios,
		harness.WithLogger(opts.Logger),
		harness.WithSyntax(opts.Config.Syntax),
	)
	if err != nil {
		return nil, err
	}
	return newVerifyReport(results), nil
}

// writeReport prints a report. JSON failures use the error envelope with
// the report as data.
func writeReport(f *OutputFormatter, report *VerifyReport) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: report}
		if len(report.Results) == 1 {
			resp.RunID = report.Results[0].RunID
		}
		if !report.OK() {
			resp.Status = "error"
			resp.Error = &CLIError{
				Code:    CodeChecksFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", report.Failed),
			}
		}
		return f.encode(resp)
	}
	return writeReportText(f.Writer, report, f.Verbose)
}

func writeReportText(w io.Writer, report *VerifyReport, verbose bool) error {
	for _, res := range report.Results {
		switch {
		case res.Skipped:
			fmt.Fprintf(w, "- %s (skipped: %s)\n", res.Scenario, res.SkipReason)
			continue
		case res.Pass:
			fmt.Fprintf(w, "✓ %s\n", res.Scenario)
		default:
			fmt.Fprintf(w, "✗ %s\n", res.Scenario)
		}
		if verbose {
			fmt.Fprintf(w, "    run %s\n", res.RunID)
		}
		for _, c := range res.Checks {
			if c.Pass {
				fmt.Fprintf(w, "    ✓ %s\n", c.Name)
				continue
			}
			fmt.Fprintf(w, "    ✗ %s\n", c.Name)
			fmt.Fprintf(w, "        %s\n", indent(c.Error, "        "))
		}
	}
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped\n", report.Passed, report.Failed, report.Skipped)
	return err
}

// indent prefixes every line after the first with pad.
func indent(s, pad string) string {
	return strings.ReplaceAll(s, "\n", "\n"+pad)
}
