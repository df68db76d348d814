package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// ScenarioFormat is the encoding of a scenario file.
type ScenarioFormat string

const (
	FormatJSON ScenarioFormat = "json"
	FormatYAML ScenarioFormat = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to
// JSON.
func FormatFromPath(path string) ScenarioFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

const (
	coordinatesMeters  = "meters"
	coordinatesPercent = "percent"

	defaultTxPowerDBm = 20.0
	defaultGridCols   = 200
	defaultGridRows   = 120
)

// channelSuffix matches AP names such as "AP2_Ch6".
var channelSuffix = regexp.MustCompile(`(?i)_ch(\d+)$`)

// file shapes are unexported so the on-disk format can evolve freely.
type scenarioJSON struct {
	Name         string            `json:"name" yaml:"name"`
	Building     buildingJSON      `json:"building" yaml:"building"`
	Coordinates  string            `json:"coordinates" yaml:"coordinates"` // "meters" | "percent"
	Model        *modelJSON        `json:"model" yaml:"model"`
	Grid         gridJSON          `json:"grid" yaml:"grid"`
	Materials    []materialJSON    `json:"materials" yaml:"materials"`
	Obstacles    []obstacleJSON    `json:"obstacles" yaml:"obstacles"`
	AccessPoints []accessPointJSON `json:"access_points" yaml:"access_points"`
	Categories   []categoryJSON    `json:"categories" yaml:"categories"`
}

type buildingJSON struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// modelJSON overrides individual DefaultPropagationParams fields.
type modelJSON struct {
	MetersPerUnit    *float64 `json:"meters_per_unit" yaml:"meters_per_unit"`
	PathLossExponent *float64 `json:"path_loss_exponent" yaml:"path_loss_exponent"`
	ReferenceLossDB  *float64 `json:"reference_loss_db" yaml:"reference_loss_db"`
	FloorDBm         *float64 `json:"floor_dbm" yaml:"floor_dbm"`
	CeilingDBm       *float64 `json:"ceiling_dbm" yaml:"ceiling_dbm"`
	OffBeamPenaltyDB *float64 `json:"off_beam_penalty_db" yaml:"off_beam_penalty_db"`
	ObstacleMode     string   `json:"obstacle_mode" yaml:"obstacle_mode"`
}

type gridJSON struct {
	Cols int `json:"cols" yaml:"cols"`
	Rows int `json:"rows" yaml:"rows"`
}

type materialJSON struct {
	Name          string  `json:"name" yaml:"name"`
	AttenuationDB float64 `json:"attenuation_db" yaml:"attenuation_db"`
}

// obstacleJSON is either a rectangle (x, y, width, height) or a wall
// segment with a thickness.
type obstacleJSON struct {
	Material string    `json:"material" yaml:"material"`
	X        float64   `json:"x" yaml:"x"`
	Y        float64   `json:"y" yaml:"y"`
	Width    float64   `json:"width" yaml:"width"`
	Height   float64   `json:"height" yaml:"height"`
	Wall     *wallJSON `json:"wall" yaml:"wall"`
}

type wallJSON struct {
	X1        float64 `json:"x1" yaml:"x1"`
	Y1        float64 `json:"y1" yaml:"y1"`
	X2        float64 `json:"x2" yaml:"x2"`
	Y2        float64 `json:"y2" yaml:"y2"`
	Thickness float64 `json:"thickness" yaml:"thickness"`
}

type accessPointJSON struct {
	ID               string   `json:"id" yaml:"id"`
	X                float64  `json:"x" yaml:"x"`
	Y                float64  `json:"y" yaml:"y"`
	TxPowerDBm       *float64 `json:"tx_power_dbm" yaml:"tx_power_dbm"` // optional; defaults to 20
	Channel          *int     `json:"channel" yaml:"channel"`           // optional; taken from an _Ch<n> suffix
	Directional      bool     `json:"directional" yaml:"directional"`
	BeamDirectionDeg float64  `json:"beam_direction_deg" yaml:"beam_direction_deg"`
	BeamWidthDeg     float64  `json:"beam_width_deg" yaml:"beam_width_deg"`
}

// categoryJSON leaves a bound unset to mean unbounded.
type categoryJSON struct {
	Name   string   `json:"name" yaml:"name"`
	MinDBm *float64 `json:"min_dbm" yaml:"min_dbm"`
	MaxDBm *float64 `json:"max_dbm" yaml:"max_dbm"`
}

// LoadScenarioFile opens path and decodes it according to its extension.
func LoadScenarioFile(path string, catalog *MaterialCatalog) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadScenarioFile: %w", err)
	}
	defer f.Close()

	s, err := LoadScenario(f, FormatFromPath(path), catalog)
	if err != nil {
		return nil, err
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// LoadScenario decodes a scenario from r and resolves obstacle materials
// against catalog (DefaultCatalog when nil). Custom materials declared in
// the file are added to a copy of the catalog, never to catalog itself.
// The returned scenario has passed Validate.
func LoadScenario(r io.Reader, format ScenarioFormat, catalog *MaterialCatalog) (*Scenario, error) {
	var payload scenarioJSON
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&payload); err != nil {
			return nil, fmt.Errorf("LoadScenario: yaml decode failed: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&payload); err != nil {
			return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("LoadScenario: unsupported format %q", format)
	}

	if catalog == nil {
		catalog = DefaultCatalog()
	} else {
		catalog = catalog.Clone()
	}
	for _, m := range payload.Materials {
		if err := catalog.Register(model.Material{Name: m.Name, AttenuationDB: m.AttenuationDB}); err != nil {
			return nil, fmt.Errorf("LoadScenario: %w", err)
		}
	}

	w, h := payload.Building.Width, payload.Building.Height
	if !positiveFinite(w) || !positiveFinite(h) {
		return nil, fmt.Errorf("LoadScenario: %w: building %vx%v", ErrInvalidConfiguration, w, h)
	}

	toX := func(v float64) float64 { return v }
	toY := toX
	switch strings.ToLower(strings.TrimSpace(payload.Coordinates)) {
	case "", coordinatesMeters:
	case coordinatesPercent:
		toX = func(v float64) float64 { return v * w / 100 }
		toY = func(v float64) float64 { return v * h / 100 }
	default:
		return nil, fmt.Errorf("LoadScenario: %w: unknown coordinates %q", ErrInvalidConfiguration, payload.Coordinates)
	}

	building := model.Rect{Width: w, Height: h}
	s := &Scenario{
		Name:     payload.Name,
		Building: building,
		Params:   paramsFromJSON(payload.Model),
		Grid: GridSpec{
			Bounds: building,
			Cols:   orDefault(payload.Grid.Cols, defaultGridCols),
			Rows:   orDefault(payload.Grid.Rows, defaultGridRows),
		},
	}

	for i, o := range payload.Obstacles {
		mat, err := catalog.Lookup(o.Material)
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: obstacle %d: %w", i, err)
		}
		var bounds model.Rect
		if o.Wall != nil {
			// Thickness stays in building units in both coordinate modes.
			bounds = model.WallRect(toX(o.Wall.X1), toY(o.Wall.Y1), toX(o.Wall.X2), toY(o.Wall.Y2), o.Wall.Thickness)
		} else {
			bounds = model.Rect{X: toX(o.X), Y: toY(o.Y), Width: toX(o.Width), Height: toY(o.Height)}
		}
		s.Obstacles = append(s.Obstacles, model.Obstacle{Bounds: bounds, Material: mat})
	}

	for _, a := range payload.AccessPoints {
		if a.ID == "" {
			return nil, fmt.Errorf("LoadScenario: access point with empty id")
		}
		ap := model.AccessPoint{
			ID:               a.ID,
			Position:         model.Point{X: toX(a.X), Y: toY(a.Y)},
			TxPowerDBm:       defaultTxPowerDBm,
			Directional:      a.Directional,
			BeamDirectionDeg: a.BeamDirectionDeg,
			BeamWidthDeg:     a.BeamWidthDeg,
		}
		if a.TxPowerDBm != nil {
			ap.TxPowerDBm = *a.TxPowerDBm
		}
		ch, err := channelFor(a)
		if err != nil {
			return nil, fmt.Errorf("LoadScenario: %w", err)
		}
		ap.Channel = ch
		s.AccessPoints = append(s.AccessPoints, ap)
	}

	for _, c := range payload.Categories {
		cat := Category{Name: c.Name, MinDBm: math.Inf(-1), MaxDBm: math.Inf(1)}
		if c.MinDBm != nil {
			cat.MinDBm = *c.MinDBm
		}
		if c.MaxDBm != nil {
			cat.MaxDBm = *c.MaxDBm
		}
		s.Categories = append(s.Categories, cat)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return s, nil
}

// ChannelFromID extracts the channel from an AP name like "AP2_Ch6".
func ChannelFromID(id string) (int, bool) {
	m := channelSuffix.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	ch, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return ch, true
}

func channelFor(a accessPointJSON) (int, error) {
	if a.Channel != nil {
		return *a.Channel, nil
	}
	if ch, ok := ChannelFromID(a.ID); ok {
		return ch, nil
	}
	return 0, fmt.Errorf("%w: access point %q has no channel", ErrInvalidConfiguration, a.ID)
}

func paramsFromJSON(m *modelJSON) PropagationParams {
	p := DefaultPropagationParams()
	if m == nil {
		return p
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.MetersPerUnit, m.MetersPerUnit)
	set(&p.PathLossExponent, m.PathLossExponent)
	set(&p.ReferenceLossDB, m.ReferenceLossDB)
	set(&p.FloorDBm, m.FloorDBm)
	set(&p.CeilingDBm, m.CeilingDBm)
	set(&p.OffBeamPenaltyDB, m.OffBeamPenaltyDB)
	if m.ObstacleMode != "" {
		p.ObstacleMode = ObstacleMode(strings.ToLower(m.ObstacleMode))
	}
	return p
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
