package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// ObstacleMode selects how obstacles attenuate an AP-to-point path.
type ObstacleMode string

const (
	// ObstacleModeEndpoint charges an obstacle for each path endpoint it
	// contains.
	ObstacleModeEndpoint ObstacleMode = "endpoint"
	// ObstacleModeSegment charges an obstacle once if the straight path
	// crosses it.
	ObstacleModeSegment ObstacleMode = "segment"
)

const (
	defaultPathLossExponent = 3.0
	defaultFloorDBm         = -100.0
	defaultCeilingDBm       = -30.0
	defaultOffBeamPenaltyDB = 20.0
)

// defaultReferenceLossDB is the ITU indoor model's frequency term at
// 2.4 GHz: 20*log10(f_MHz) - 28.
var defaultReferenceLossDB = 20*math.Log10(2400) - 28

// PropagationParams holds the constants of the log-distance path-loss
// model used to estimate received signal strength.
type PropagationParams struct {
	// MetersPerUnit converts coordinate distances to meters.
	MetersPerUnit    float64      `json:"meters_per_unit" yaml:"meters_per_unit"`
	PathLossExponent float64      `json:"path_loss_exponent" yaml:"path_loss_exponent"`
	ReferenceLossDB  float64      `json:"reference_loss_db" yaml:"reference_loss_db"`
	FloorDBm         float64      `json:"floor_dbm" yaml:"floor_dbm"`
	CeilingDBm       float64      `json:"ceiling_dbm" yaml:"ceiling_dbm"`
	OffBeamPenaltyDB float64      `json:"off_beam_penalty_db" yaml:"off_beam_penalty_db"`
	ObstacleMode     ObstacleMode `json:"obstacle_mode,omitempty" yaml:"obstacle_mode,omitempty"`
}

// DefaultPropagationParams returns the canonical indoor 2.4 GHz constants
// with coordinates in meters.
func DefaultPropagationParams() PropagationParams {
	return PropagationParams{
		MetersPerUnit:    1.0,
		PathLossExponent: defaultPathLossExponent,
		ReferenceLossDB:  defaultReferenceLossDB,
		FloorDBm:         defaultFloorDBm,
		CeilingDBm:       defaultCeilingDBm,
		OffBeamPenaltyDB: defaultOffBeamPenaltyDB,
		ObstacleMode:     ObstacleModeEndpoint,
	}
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Validate checks that the parameters describe a usable model.
func (p PropagationParams) Validate() error {
	switch {
	case !positiveFinite(p.MetersPerUnit):
		return fmt.Errorf("%w: meters per unit must be positive, got %v", ErrInvalidConfiguration, p.MetersPerUnit)
	case !positiveFinite(p.PathLossExponent):
		return fmt.Errorf("%w: path loss exponent must be positive, got %v", ErrInvalidConfiguration, p.PathLossExponent)
	case !positiveFinite(p.ReferenceLossDB):
		return fmt.Errorf("%w: reference loss must be positive, got %v", ErrInvalidConfiguration, p.ReferenceLossDB)
	case math.IsNaN(p.FloorDBm) || math.IsNaN(p.CeilingDBm) || !(p.FloorDBm < p.CeilingDBm):
		return fmt.Errorf("%w: floor %v dBm must be below ceiling %v dBm", ErrInvalidConfiguration, p.FloorDBm, p.CeilingDBm)
	case p.OffBeamPenaltyDB < 0 || math.IsNaN(p.OffBeamPenaltyDB):
		return fmt.Errorf("%w: off-beam penalty must be non-negative, got %v", ErrInvalidConfiguration, p.OffBeamPenaltyDB)
	}
	switch p.ObstacleMode {
	case "", ObstacleModeEndpoint, ObstacleModeSegment:
	default:
		return fmt.Errorf("%w: unknown obstacle mode %q", ErrInvalidConfiguration, p.ObstacleMode)
	}
	return nil
}

// PropagationModel estimates the signal a single AP delivers to a point.
// It is immutable after construction and safe for concurrent use.
type PropagationModel struct {
	params PropagationParams
}

// NewPropagationModel validates params and returns a model.
func NewPropagationModel(params PropagationParams) (*PropagationModel, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.ObstacleMode == "" {
		params.ObstacleMode = ObstacleModeEndpoint
	}
	return &PropagationModel{params: params}, nil
}

// Params returns the model's parameters.
func (m *PropagationModel) Params() PropagationParams {
	return m.params
}

// PathLossDB returns the free-space-plus-exponent loss at the given
// distance in meters. Callers handle distance zero separately.
func (m *PropagationModel) PathLossDB(distanceMeters float64) float64 {
	return m.params.PathLossExponent*10*math.Log10(distanceMeters) + m.params.ReferenceLossDB
}

// Clamp bounds v to [FloorDBm, CeilingDBm].
func (m *PropagationModel) Clamp(v float64) float64 {
	return math.Max(m.params.FloorDBm, math.Min(m.params.CeilingDBm, v))
}

// SignalAt estimates the received signal in dBm at pt from ap.
//
// A point that coincides with the AP receives the transmit power as-is;
// every other estimate is clamped to the model's floor and ceiling.
// Points outside the building are evaluated the same way.
func (m *PropagationModel) SignalAt(pt model.Point, ap model.AccessPoint, obstacles []model.Obstacle) float64 {
	d := ap.Position.DistanceTo(pt) * m.params.MetersPerUnit
	if d == 0 {
		return ap.TxPowerDBm
	}

	signal := ap.TxPowerDBm - m.PathLossDB(d)
	signal -= obstacleLossDB(ap.Position, pt, obstacles, m.params.ObstacleMode)

	if ap.Directional {
		dev := angleDeviation(bearingDegrees(ap.Position, pt), ap.BeamDirectionDeg)
		if math.Abs(dev) > ap.BeamWidthDeg/2 {
			signal -= m.params.OffBeamPenaltyDB
		}
	}

	return m.Clamp(signal)
}
