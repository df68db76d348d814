package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

func newMaterialsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "materials",
		Short: "List the built-in obstacle materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			tbl := newPalette(out, root.noColor).table(out, "Material", "Attenuation")
			for _, m := range core.DefaultCatalog().List() {
				tbl.AddRow(m.Name, fmt.Sprintf("%.1f dB", m.AttenuationDB))
			}
			tbl.Print()
			return nil
		},
	}
}
