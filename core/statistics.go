package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Category is a named, half-open [MinDBm, MaxDBm) signal range. Either
// bound may be infinite.
type Category struct {
	Name   string  `json:"name" yaml:"name"`
	MinDBm float64 `json:"min_dbm" yaml:"min_dbm"`
	MaxDBm float64 `json:"max_dbm" yaml:"max_dbm"`
}

// Contains reports whether v falls inside the category.
func (c Category) Contains(v float64) bool {
	return v >= c.MinDBm && v < c.MaxDBm
}

// CategoryTable is an ordered list of categories. Report order follows
// table order.
type CategoryTable []Category

// DefaultCategories returns the conventional WiFi quality bands.
func DefaultCategories() CategoryTable {
	return CategoryTable{
		{Name: "Excellent", MinDBm: -50, MaxDBm: math.Inf(1)},
		{Name: "Very Good", MinDBm: -60, MaxDBm: -50},
		{Name: "Good", MinDBm: -67, MaxDBm: -60},
		{Name: "Fair", MinDBm: -70, MaxDBm: -67},
		{Name: "Poor", MinDBm: -80, MaxDBm: -70},
		{Name: "Very Poor", MinDBm: math.Inf(-1), MaxDBm: -80},
	}
}

// validatePartition checks names and that the ranges tile a contiguous
// interval without overlaps or gaps. It returns the ranges sorted by MinDBm.
func (t CategoryTable) validatePartition() ([]Category, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: empty category table", ErrCategoryConfiguration)
	}

	seen := make(map[string]struct{}, len(t))
	for _, c := range t {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: category with empty name", ErrCategoryConfiguration)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrCategoryConfiguration, name)
		}
		seen[name] = struct{}{}
		if !(c.MinDBm < c.MaxDBm) {
			return nil, fmt.Errorf("%w: category %q has empty range [%v, %v)", ErrCategoryConfiguration, c.Name, c.MinDBm, c.MaxDBm)
		}
	}

	sorted := append([]Category(nil), t...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinDBm < sorted[j].MinDBm })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		switch {
		case prev.MaxDBm > cur.MinDBm:
			return nil, fmt.Errorf("%w: categories %q and %q overlap", ErrCategoryConfiguration, prev.Name, cur.Name)
		case prev.MaxDBm < cur.MinDBm:
			return nil, fmt.Errorf("%w: gap between %q and %q at [%v, %v)", ErrCategoryConfiguration, prev.Name, cur.Name, prev.MaxDBm, cur.MinDBm)
		}
	}
	return sorted, nil
}

// Validate checks that the table partitions the closed range
// [floor, ceiling] into disjoint, gap-free categories.
func (t CategoryTable) Validate(floor, ceiling float64) error {
	sorted, err := t.validatePartition()
	if err != nil {
		return err
	}
	if lo := sorted[0].MinDBm; lo > floor {
		return fmt.Errorf("%w: no category covers %v dBm (lowest starts at %v)", ErrCategoryConfiguration, floor, lo)
	}
	if hi := sorted[len(sorted)-1].MaxDBm; hi <= ceiling {
		return fmt.Errorf("%w: no category covers %v dBm (highest ends at %v)", ErrCategoryConfiguration, ceiling, hi)
	}
	return nil
}

// Classify returns the index of the category containing v.
func (t CategoryTable) Classify(v float64) (int, bool) {
	for i, c := range t {
		if c.Contains(v) {
			return i, true
		}
	}
	return -1, false
}

// CategoryShare is the count and percentage of cells in one category.
type CategoryShare struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// APShare is the number of cells an AP serves as best signal.
type APShare struct {
	APID    string  `json:"ap_id"`
	Cells   int     `json:"cells"`
	Percent float64 `json:"percent"`
}

// Summary aggregates a grid into coverage statistics.
type Summary struct {
	TotalCells int             `json:"total_cells"`
	Categories []CategoryShare `json:"categories"`

	MeanBestDBm float64 `json:"mean_best_dbm"`
	MinBestDBm  float64 `json:"min_best_dbm"`
	MaxBestDBm  float64 `json:"max_best_dbm"`
	MeanSIRDB   float64 `json:"mean_sir_db"`
	MinSIRDB    float64 `json:"min_sir_db"`

	// Servers is ordered by descending cell count, then AP ID.
	Servers []APShare `json:"servers"`
}

// Category returns the share for the named category.
func (s *Summary) Category(name string) (CategoryShare, bool) {
	for _, c := range s.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryShare{}, false
}

// Summarize classifies every cell's best signal against table.
func Summarize(grid *Grid, table CategoryTable) (*Summary, error) {
	if _, err := table.validatePartition(); err != nil {
		return nil, err
	}

	s := &Summary{Categories: make([]CategoryShare, len(table))}
	for i, c := range table {
		s.Categories[i].Name = c.Name
	}
	if grid == nil {
		return s, nil
	}

	served := make(map[string]int)
	var (
		sumBest, sumSIR float64
		classifyErr     error
	)
	grid.Each(func(c CellResult) {
		if classifyErr != nil {
			return
		}
		idx, ok := table.Classify(c.BestDBm)
		if !ok {
			classifyErr = fmt.Errorf("%w: %v dBm at (%v, %v) falls outside every category", ErrCategoryConfiguration, c.BestDBm, c.X, c.Y)
			return
		}
		s.Categories[idx].Count++
		served[c.APID]++

		if s.TotalCells == 0 {
			s.MinBestDBm, s.MaxBestDBm, s.MinSIRDB = c.BestDBm, c.BestDBm, c.SIRDB
		} else {
			s.MinBestDBm = math.Min(s.MinBestDBm, c.BestDBm)
			s.MaxBestDBm = math.Max(s.MaxBestDBm, c.BestDBm)
			s.MinSIRDB = math.Min(s.MinSIRDB, c.SIRDB)
		}
		sumBest += c.BestDBm
		sumSIR += c.SIRDB
		s.TotalCells++
	})
	if classifyErr != nil {
		return nil, classifyErr
	}
	if s.TotalCells == 0 {
		return s, nil
	}

	total := float64(s.TotalCells)
	for i := range s.Categories {
		s.Categories[i].Percent = 100 * float64(s.Categories[i].Count) / total
	}
	s.MeanBestDBm = sumBest / total
	s.MeanSIRDB = sumSIR / total

	ids := maps.Keys(served)
	slices.SortFunc(ids, func(a, b string) int {
		if served[a] != served[b] {
			return served[b] - served[a]
		}
		return strings.Compare(a, b)
	})
	s.Servers = make([]APShare, 0, len(ids))
	for _, id := range ids {
		s.Servers = append(s.Servers, APShare{APID: id, Cells: served[id], Percent: 100 * float64(served[id]) / total})
	}
	return s, nil
}
