package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

func TestSegmentIntersectsRect(t *testing.T) {
	box := model.Rect{X: 4, Y: -1, Width: 2, Height: 2}

	cases := []struct {
		name   string
		p1, p2 model.Point
		want   bool
	}{
		{"crosses", model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 0}, true},
		{"stops short", model.Point{X: 0, Y: 0}, model.Point{X: 3, Y: 0}, false},
		{"passes above", model.Point{X: 0, Y: 5}, model.Point{X: 10, Y: 5}, false},
		{"diagonal through corner region", model.Point{X: 0, Y: -4}, model.Point{X: 10, Y: 4}, true},
		{"ends inside", model.Point{X: 0, Y: 0}, model.Point{X: 5, Y: 0}, true},
		{"touches edge", model.Point{X: 0, Y: 1}, model.Point{X: 10, Y: 1}, true},
		{"degenerate inside", model.Point{X: 5, Y: 0}, model.Point{X: 5, Y: 0}, true},
		{"degenerate outside", model.Point{X: 0, Y: 0}, model.Point{X: 0, Y: 0}, false},
		{"vertical miss", model.Point{X: 7, Y: -5}, model.Point{X: 7, Y: 5}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := segmentIntersectsRect(tc.p1, tc.p2, box); got != tc.want {
				t.Fatalf("segmentIntersectsRect(%v, %v) = %v, want %v", tc.p1, tc.p2, got, tc.want)
			}
		})
	}
}

func TestAngleDeviationWraps(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{10, 350, 20},
		{350, 10, -20},
		{90, 0, 90},
		{-170, 170, 20},
		{180, 0, 180},
	}
	for _, tc := range cases {
		if got := angleDeviation(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("angleDeviation(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestBearingDegrees(t *testing.T) {
	origin := model.Point{}
	if got := bearingDegrees(origin, model.Point{X: 0, Y: 3}); math.Abs(got-90) > 1e-9 {
		t.Fatalf("bearing to +Y = %v, want 90", got)
	}
	if got := bearingDegrees(origin, model.Point{X: -2, Y: 0}); math.Abs(got-180) > 1e-9 {
		t.Fatalf("bearing to -X = %v, want 180", got)
	}
}

func TestObstacleLossModes(t *testing.T) {
	metal := model.Material{Name: "metal", AttenuationDB: 15}
	ap := model.Point{X: 0, Y: 0}
	pt := model.Point{X: 10, Y: 0}

	between := []model.Obstacle{{Bounds: model.Rect{X: 4, Y: -1, Width: 1, Height: 2}, Material: metal}}
	if got := obstacleLossDB(ap, pt, between, ObstacleModeEndpoint); got != 0 {
		t.Fatalf("endpoint mode charged %v dB for an obstacle containing neither endpoint", got)
	}
	if got := obstacleLossDB(ap, pt, between, ObstacleModeSegment); got != 15 {
		t.Fatalf("segment mode loss = %v, want 15", got)
	}

	// One obstacle containing both endpoints is charged twice.
	around := []model.Obstacle{{Bounds: model.Rect{X: -1, Y: -1, Width: 12, Height: 2}, Material: metal}}
	if got := obstacleLossDB(ap, pt, around, ObstacleModeEndpoint); got != 30 {
		t.Fatalf("endpoint mode loss = %v, want 30", got)
	}
	if got := obstacleLossDB(ap, pt, around, ObstacleModeSegment); got != 15 {
		t.Fatalf("segment mode loss = %v, want 15", got)
	}

	// Overlapping obstacles add up.
	stacked := append(append([]model.Obstacle{}, between...), model.Obstacle{
		Bounds:   model.Rect{X: 4.5, Y: -1, Width: 1, Height: 2},
		Material: model.Material{Name: "drywall", AttenuationDB: 3},
	})
	if got := obstacleLossDB(ap, pt, stacked, ObstacleModeSegment); got != 18 {
		t.Fatalf("stacked loss = %v, want 18", got)
	}
}
