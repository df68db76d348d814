package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

func newCompareCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compare BASELINE CANDIDATE",
		Short: "Compare the coverage of two scenario files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseline, err := evaluateFile(cmd.Context(), root, args[0])
			if err != nil {
				return err
			}
			candidate, err := evaluateFile(cmd.Context(), root, args[1])
			if err != nil {
				return err
			}
			cmp, err := core.CompareSummaries(baseline.Summary, candidate.Summary)
			if err != nil {
				return fmt.Errorf("compare %s and %s: %w", args[0], args[1], err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{
					"baseline":   baseline.runResult,
					"candidate":  candidate.runResult,
					"comparison": cmp,
				})
			}
			p := newPalette(out, root.noColor)
			printSummary(out, p, baseline.Scenario, baseline.Summary)
			printSummary(out, p, candidate.Scenario, candidate.Summary)
			printComparison(out, p, baseline.Scenario, candidate.Scenario, cmp)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	return cmd
}
