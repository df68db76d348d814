// Package main is the coverage-sim command line tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	noColor bool
	workers int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "coverage-sim",
		Short: "Indoor WiFi coverage simulator",
		Long: `coverage-sim evaluates access point deployments on a floor plan: best signal,
co-channel interference and SIR per grid cell, summarised into coverage categories.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().IntVar(&opts.workers, "workers", 0, "rows evaluated in parallel (0 uses GOMAXPROCS)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newCompareCmd(opts))
	cmd.AddCommand(newMaterialsCmd(opts))
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
