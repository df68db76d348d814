package core

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// BestSignal identifies the AP that serves a point.
type BestSignal struct {
	APID string
	DBm  float64
}

// CellResult is the combined evaluation at one sample point.
type CellResult struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	APID            string  `json:"ap_id"`
	BestDBm         float64 `json:"best_dbm"`
	InterferenceDBm float64 `json:"interference_dbm"`
	SIRDB           float64 `json:"sir_db"`
}

// ChannelOverlap returns the fraction of energy shared by two 2.4 GHz
// channels: 1 for the same channel, falling by 0.2 per channel of
// separation, 0 from five channels apart.
func ChannelOverlap(a, b int) float64 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d >= 5 {
		return 0
	}
	return 1 - 0.2*float64(d)
}

func dbmToMilliwatts(dbm float64) float64 {
	return math.Pow(10, dbm/10)
}

func milliwattsToDBm(mw float64) float64 {
	return 10 * math.Log10(mw)
}

// CombinationEngine merges per-AP estimates into serving signal and
// interference at a point.
type CombinationEngine struct {
	Model *PropagationModel
}

// NewCombinationEngine wraps a propagation model.
func NewCombinationEngine(m *PropagationModel) *CombinationEngine {
	return &CombinationEngine{Model: m}
}

// BestSignal returns the strongest AP at pt. Ties keep the AP that comes
// first in aps.
func (e *CombinationEngine) BestSignal(pt model.Point, aps []model.AccessPoint, obstacles []model.Obstacle) (BestSignal, error) {
	if len(aps) == 0 {
		return BestSignal{}, fmt.Errorf("%w: no access points", ErrInvalidConfiguration)
	}

	best := BestSignal{APID: aps[0].ID, DBm: e.Model.SignalAt(pt, aps[0], obstacles)}
	for i := 1; i < len(aps); i++ {
		s := e.Model.SignalAt(pt, aps[i], obstacles)
		if s > best.DBm {
			best = BestSignal{APID: aps[i].ID, DBm: s}
		}
	}
	return best, nil
}

// Interference sums, in the linear power domain, the overlap-weighted
// signal of every AP other than excludedID as seen on channel. With no
// contributors it is the model floor.
func (e *CombinationEngine) Interference(pt model.Point, channel int, excludedID string, aps []model.AccessPoint, obstacles []model.Obstacle) float64 {
	floor := e.Model.params.FloorDBm

	total := 0.0
	for i := range aps {
		ap := &aps[i]
		if ap.ID == excludedID {
			continue
		}
		overlap := ChannelOverlap(channel, ap.Channel)
		if overlap <= 0 {
			continue
		}
		total += dbmToMilliwatts(e.Model.SignalAt(pt, *ap, obstacles)) * overlap
	}
	if total <= 0 {
		return floor
	}
	return milliwattsToDBm(total)
}

// EvaluatePoint computes the serving AP, the interference on its channel
// from every other AP, and the resulting signal-to-interference ratio.
func (e *CombinationEngine) EvaluatePoint(pt model.Point, aps []model.AccessPoint, obstacles []model.Obstacle) (CellResult, error) {
	best, err := e.BestSignal(pt, aps, obstacles)
	if err != nil {
		return CellResult{}, err
	}

	channel := 0
	for i := range aps {
		if aps[i].ID == best.APID {
			channel = aps[i].Channel
			break
		}
	}
	interference := e.Interference(pt, channel, best.APID, aps, obstacles)

	return CellResult{
		X:               pt.X,
		Y:               pt.Y,
		APID:            best.APID,
		BestDBm:         best.DBm,
		InterferenceDBm: interference,
		SIRDB:           best.DBm - interference,
	}, nil
}
