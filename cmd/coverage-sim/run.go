package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

type runOptions struct {
	*rootOptions
	json      bool
	perAP     bool
	threshold float64
}

type apCoverage struct {
	APID         string  `json:"ap_id"`
	Channel      int     `json:"channel"`
	MeanDBm      float64 `json:"mean_dbm"`
	CoveredPct   float64 `json:"covered_percent"`
	ThresholdDBm float64 `json:"threshold_dbm"`
}

type runResult struct {
	Scenario string        `json:"scenario"`
	Path     string        `json:"path"`
	Summary  *core.Summary `json:"summary"`
	PerAP    []apCoverage  `json:"per_ap,omitempty"`
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run SCENARIO [SCENARIO...]",
		Short: "Evaluate one or more scenario files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&opts.perAP, "per-ap", false, "also evaluate each access point on its own")
	cmd.Flags().Float64Var(&opts.threshold, "threshold", -67, "signal in dBm counted as covered by --per-ap")
	return cmd
}

func runScenarios(ctx context.Context, out io.Writer, opts *runOptions, paths []string) error {
	results := make([]runResult, 0, len(paths))
	for _, path := range paths {
		res, err := evaluateFile(ctx, opts.rootOptions, path)
		if err != nil {
			return err
		}
		if opts.perAP {
			if res.PerAP, err = perAPCoverage(ctx, opts, res.scenario); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		results = append(results, res.runResult)
	}

	if opts.json {
		return writeJSON(out, results)
	}

	p := newPalette(out, opts.noColor)
	for _, r := range results {
		printSummary(out, p, r.Scenario, r.Summary)
		printServers(out, p, r.Summary)
		if len(r.PerAP) > 0 {
			fmt.Fprintln(out)
			tbl := p.table(out, "AP", "Channel", "Mean", fmt.Sprintf(">= %.0f dBm", opts.threshold))
			for _, a := range r.PerAP {
				tbl.AddRow(a.APID, a.Channel, fmt.Sprintf("%.2f dBm", a.MeanDBm), fmt.Sprintf("%.2f%%", a.CoveredPct))
			}
			tbl.Print()
		}
	}
	return nil
}

type fileResult struct {
	runResult
	scenario *core.Scenario
}

func evaluateFile(ctx context.Context, opts *rootOptions, path string) (*fileResult, error) {
	s, err := core.LoadScenarioFile(path, core.DefaultCatalog())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ev, err := core.Evaluate(ctx, s, gridOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &fileResult{
		runResult: runResult{Scenario: ev.Scenario, Path: path, Summary: ev.Summary},
		scenario:  s,
	}, nil
}

func perAPCoverage(ctx context.Context, opts *runOptions, s *core.Scenario) ([]apCoverage, error) {
	m, err := core.NewPropagationModel(s.Params)
	if err != nil {
		return nil, err
	}

	out := make([]apCoverage, 0, len(s.AccessPoints))
	for _, ap := range s.AccessPoints {
		rows, err := core.SingleAPGrid(ctx, m, ap, s.Obstacles, s.Grid, gridOptions(opts.rootOptions)...)
		if err != nil {
			return nil, err
		}
		var sum float64
		var covered, total int
		for _, row := range rows {
			for _, v := range row {
				sum += v
				total++
				if v >= opts.threshold {
					covered++
				}
			}
		}
		out = append(out, apCoverage{
			APID:         ap.ID,
			Channel:      ap.Channel,
			MeanDBm:      sum / float64(total),
			CoveredPct:   100 * float64(covered) / float64(total),
			ThresholdDBm: opts.threshold,
		})
	}
	return out, nil
}

func gridOptions(opts *rootOptions) []core.GridOption {
	if opts.workers > 0 {
		return []core.GridOption{core.WithWorkers(opts.workers)}
	}
	return nil
}
