package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rodaine/table"

	"github.com/signalsfoundry/indoor-coverage-sim/core"
)

// palette holds the formatters used for report tables.
type palette struct {
	header *color.Color
	label  *color.Color
	good   *color.Color
	bad    *color.Color
}

func newPalette(out io.Writer, noColor bool) palette {
	p := palette{
		header: color.New(color.FgGreen, color.Underline),
		label:  color.New(color.FgYellow),
		good:   color.New(color.FgHiGreen),
		bad:    color.New(color.FgHiRed),
	}
	if noColor || !isTerminal(out) {
		for _, c := range []*color.Color{p.header, p.label, p.good, p.bad} {
			c.DisableColor()
		}
	}
	return p
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p palette) table(out io.Writer, headers ...interface{}) table.Table {
	return table.New(headers...).
		WithWriter(out).
		WithHeaderFormatter(p.header.SprintfFunc()).
		WithFirstColumnFormatter(p.label.SprintfFunc())
}

// signed colours a delta green when it is an improvement.
func (p palette) signed(v float64, unit string) string {
	s := fmt.Sprintf("%+.2f%s", v, unit)
	switch {
	case v > 0:
		return p.good.Sprint(s)
	case v < 0:
		return p.bad.Sprint(s)
	default:
		return s
	}
}

func printSummary(out io.Writer, p palette, name string, s *core.Summary) {
	fmt.Fprintf(out, "\n%s (%d cells)\n", name, s.TotalCells)

	tbl := p.table(out, "Category", "Cells", "Coverage")
	for _, c := range s.Categories {
		tbl.AddRow(c.Name, c.Count, fmt.Sprintf("%.2f%%", c.Percent))
	}
	tbl.Print()

	fmt.Fprintf(out, "\nbest signal: mean %.2f dBm, min %.2f dBm, max %.2f dBm\n",
		s.MeanBestDBm, s.MinBestDBm, s.MaxBestDBm)
	fmt.Fprintf(out, "SIR: mean %.2f dB, min %.2f dB\n", s.MeanSIRDB, s.MinSIRDB)
}

func printServers(out io.Writer, p palette, s *core.Summary) {
	fmt.Fprintln(out)
	tbl := p.table(out, "Serving AP", "Cells", "Share")
	for _, a := range s.Servers {
		tbl.AddRow(a.APID, a.Cells, fmt.Sprintf("%.2f%%", a.Percent))
	}
	tbl.Print()
}

func printComparison(out io.Writer, p palette, baseline, candidate string, c *core.Comparison) {
	fmt.Fprintf(out, "\n%s -> %s\n", baseline, candidate)

	tbl := p.table(out, "Category", baseline, candidate, "Delta")
	for _, d := range c.Categories {
		tbl.AddRow(d.Name,
			fmt.Sprintf("%.2f%%", d.BaselinePercent),
			fmt.Sprintf("%.2f%%", d.CandidatePercent),
			fmt.Sprintf("%+.2f%%", d.DeltaPercent),
		)
	}
	tbl.Print()

	fmt.Fprintf(out, "\nmean best signal: %s\n", p.signed(c.MeanBestDeltaDB, " dB"))
	fmt.Fprintf(out, "min best signal:  %s\n", p.signed(c.MinBestDeltaDB, " dB"))
	fmt.Fprintf(out, "mean SIR:         %s\n", p.signed(c.MeanSIRDeltaDB, " dB"))
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
