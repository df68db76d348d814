package core

import (
	"math"

	"github.com/signalsfoundry/indoor-coverage-sim/model"
)

// bearingDegrees returns the direction from one point to another in
// degrees, counter-clockwise from the +X axis, in (-180, 180].
func bearingDegrees(from, to model.Point) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X) * 180.0 / math.Pi
}

// angleDeviation returns the signed difference a-b wrapped to [-180, 180].
func angleDeviation(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	return d
}

// segmentIntersectsRect checks whether the closed segment p1-p2 touches
// the rectangle r, using Liang-Barsky clipping. A zero-length segment
// intersects only if the point lies inside r.
func segmentIntersectsRect(p1, p2 model.Point, r model.Rect) bool {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y

	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{p1.X - r.X, r.MaxX() - p1.X, p1.Y - r.Y, r.MaxY() - p1.Y}

	t0, t1 := 0.0, 1.0
	for i := range p {
		if p[i] == 0 {
			// Parallel to this edge: reject if outside it.
			if q[i] < 0 {
				return false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
	}
	return t0 <= t1
}

// obstacleLossDB sums the attenuation between an AP and a sample point.
//
// In ObstacleModeEndpoint each obstacle is charged once for containing the
// AP and once more for containing the point; this is a cheap stand-in for a
// ray trace, not a line-of-sight test. ObstacleModeSegment charges every
// obstacle the AP-to-point segment passes through exactly once.
func obstacleLossDB(ap, pt model.Point, obstacles []model.Obstacle, mode ObstacleMode) float64 {
	loss := 0.0
	for i := range obstacles {
		o := &obstacles[i]
		switch mode {
		case ObstacleModeSegment:
			if segmentIntersectsRect(ap, pt, o.Bounds) {
				loss += o.Material.AttenuationDB
			}
		default:
			if o.Bounds.Contains(ap) {
				loss += o.Material.AttenuationDB
			}
			if o.Bounds.Contains(pt) {
				loss += o.Material.AttenuationDB
			}
		}
	}
	return loss
}
