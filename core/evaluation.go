package core

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// Scenario bundles everything needed to evaluate one deployment.
type Scenario struct {
	Name         string
	Building     model.Rect
	Params       PropagationParams
	Grid         GridSpec
	AccessPoints []model.AccessPoint
	Obstacles    []model.Obstacle
	// Categories defaults to DefaultCategories when empty.
	Categories CategoryTable
}

// CategoryTable returns the scenario's categories, or the defaults.
func (s *Scenario) CategoryTable() CategoryTable {
	if len(s.Categories) == 0 {
		return DefaultCategories()
	}
	return s.Categories
}

// Validate checks the whole scenario before any cell is evaluated.
func (s *Scenario) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil scenario", ErrInvalidConfiguration)
	}
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if len(s.AccessPoints) == 0 {
		return fmt.Errorf("%w: scenario %q has no access points", ErrInvalidConfiguration, s.Name)
	}
	if _, err := NewRegistry(s.AccessPoints...); err != nil {
		return err
	}
	for _, ap := range s.AccessPoints {
		if nonFinite(ap.Position.X) || nonFinite(ap.Position.Y) || nonFinite(ap.TxPowerDBm) {
			return fmt.Errorf("%w: access point %q has non-finite position or power", ErrInvalidConfiguration, ap.ID)
		}
		if ap.Directional && (ap.BeamWidthDeg <= 0 || nonFinite(ap.BeamWidthDeg) || nonFinite(ap.BeamDirectionDeg)) {
			return fmt.Errorf("%w: directional access point %q needs a positive beam width", ErrInvalidConfiguration, ap.ID)
		}
	}
	for i, o := range s.Obstacles {
		if !o.Bounds.IsValid() {
			return fmt.Errorf("%w: obstacle %d has invalid bounds %+v", ErrInvalidConfiguration, i, o.Bounds)
		}
		if o.Material.AttenuationDB < 0 || nonFinite(o.Material.AttenuationDB) {
			return fmt.Errorf("%w: obstacle %d material %q", ErrInvalidMaterial, i, o.Material.Name)
		}
	}
	if err := s.Grid.Validate(); err != nil {
		return err
	}
	table := s.CategoryTable()
	if err := table.Validate(s.Params.FloorDBm, s.Params.CeilingDBm); err != nil {
		return err
	}
	// A lattice point on an AP reads its transmit power unclamped.
	for _, ap := range s.AccessPoints {
		if _, ok := table.Classify(ap.TxPowerDBm); !ok {
			return fmt.Errorf("%w: transmit power %v dBm of access point %q falls outside every category", ErrCategoryConfiguration, ap.TxPowerDBm, ap.ID)
		}
	}
	return nil
}

// Evaluation is the result of evaluating a scenario.
type Evaluation struct {
	Scenario string
	Grid     *Grid
	Summary  *Summary
}

// Evaluate validates s, samples its grid and summarises the result.
func Evaluate(ctx context.Context, s *Scenario, opts ...GridOption) (*Evaluation, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	m, err := NewPropagationModel(s.Params)
	if err != nil {
		return nil, err
	}

	grid, err := NewCombinationEngine(m).EvaluateGrid(ctx, s.AccessPoints, s.Obstacles, s.Grid, opts...)
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(grid, s.CategoryTable())
	if err != nil {
		return nil, err
	}
	return &Evaluation{Scenario: s.Name, Grid: grid, Summary: summary}, nil
}
