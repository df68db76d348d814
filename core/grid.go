package core

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// GridSpec describes a rectangular sampling lattice.
type GridSpec struct {
	Bounds model.Rect `json:"bounds" yaml:"bounds"`
	Cols   int        `json:"cols" yaml:"cols"`
	Rows   int        `json:"rows" yaml:"rows"`
}

// Validate checks the lattice has at least one point and a positive area.
func (g GridSpec) Validate() error {
	if g.Cols < 1 || g.Rows < 1 {
		return fmt.Errorf("%w: grid resolution %dx%d", ErrInvalidConfiguration, g.Cols, g.Rows)
	}
	if !g.Bounds.IsValid() || g.Bounds.Width <= 0 || g.Bounds.Height <= 0 {
		return fmt.Errorf("%w: grid bounds %+v", ErrInvalidConfiguration, g.Bounds)
	}
	return nil
}

// PointAt returns the lattice point at column col and row row. Points
// start at the bounds origin and step by Width/Cols and Height/Rows.
func (g GridSpec) PointAt(col, row int) model.Point {
	return model.Point{
		X: g.Bounds.X + float64(col)*g.Bounds.Width/float64(g.Cols),
		Y: g.Bounds.Y + float64(row)*g.Bounds.Height/float64(g.Rows),
	}
}

// Size returns the number of lattice points.
func (g GridSpec) Size() int {
	return g.Cols * g.Rows
}

// Grid holds one CellResult per lattice point, indexed Cells[row][col].
type Grid struct {
	Spec  GridSpec
	Cells [][]CellResult
}

// At returns the cell at (col, row).
func (g *Grid) At(col, row int) CellResult {
	return g.Cells[row][col]
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(c CellResult)) {
	for _, row := range g.Cells {
		for _, c := range row {
			fn(c)
		}
	}
}

// Strongest returns the cell with the highest best signal. Ties keep the
// first cell in row-major order.
func (g *Grid) Strongest() (CellResult, bool) {
	var (
		best  CellResult
		found bool
	)
	g.Each(func(c CellResult) {
		if !found || c.BestDBm > best.BestDBm {
			best, found = c, true
		}
	})
	return best, found
}

type gridConfig struct {
	workers int
}

// GridOption customises grid evaluation.
type GridOption func(*gridConfig)

// WithWorkers bounds the number of rows evaluated concurrently. Values
// below one fall back to sequential evaluation.
func WithWorkers(n int) GridOption {
	return func(c *gridConfig) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

func newGridConfig(opts []GridOption) gridConfig {
	cfg := gridConfig{workers: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// forEachRow runs fn for every row of spec on a bounded worker pool.
// Cancellation of ctx is observed between rows.
func forEachRow(ctx context.Context, spec GridSpec, cfg gridConfig, fn func(row int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for row := 0; row < spec.Rows; row++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(row)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// EvaluateGrid evaluates every lattice point of spec. Each cell is
// computed independently, so the result does not depend on the number
// of workers.
func (e *CombinationEngine) EvaluateGrid(ctx context.Context, aps []model.AccessPoint, obstacles []model.Obstacle, spec GridSpec, opts ...GridOption) (*Grid, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(aps) == 0 {
		return nil, fmt.Errorf("%w: no access points", ErrInvalidConfiguration)
	}

	cells := make([][]CellResult, spec.Rows)
	err := forEachRow(ctx, spec, newGridConfig(opts), func(row int) error {
		line := make([]CellResult, spec.Cols)
		for col := range line {
			c, err := e.EvaluatePoint(spec.PointAt(col, row), aps, obstacles)
			if err != nil {
				return err
			}
			line[col] = c
		}
		cells[row] = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Grid{Spec: spec, Cells: cells}, nil
}

// SingleAPGrid evaluates one AP on its own across spec and returns the
// signal in dBm, indexed [row][col].
func SingleAPGrid(ctx context.Context, m *PropagationModel, ap model.AccessPoint, obstacles []model.Obstacle, spec GridSpec, opts ...GridOption) ([][]float64, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	out := make([][]float64, spec.Rows)
	err := forEachRow(ctx, spec, newGridConfig(opts), func(row int) error {
		line := make([]float64, spec.Cols)
		for col := range line {
			line[col] = m.SignalAt(spec.PointAt(col, row), ap, obstacles)
		}
		out[row] = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// nonFinite reports whether v is NaN or infinite.
func nonFinite(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
