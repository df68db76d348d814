package model

import "math"

// Point is a position in the building's coordinate space. Units are
// whatever the caller's floor plan uses; PropagationParams.MetersPerUnit
// converts them to metres.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DistanceTo returns the straight-line distance between two points.
func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// Rect is an axis-aligned rectangle anchored at its minimum corner.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the top edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Contains reports whether p lies inside r. Edges count as inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// IsValid reports whether the rectangle has finite, non-negative extents.
// Zero-width rectangles are allowed so that thin walls can be modelled as
// line segments.
func (r Rect) IsValid() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

// WallRect converts a wall drawn from (x1, y1) to (x2, y2) into the
// rectangle it covers. Thickness is applied across the wall; walls that are
// not axis-aligned are approximated by their bounding box.
func WallRect(x1, y1, x2, y2, thickness float64) Rect {
	minX, maxX := math.Min(x1, x2), math.Max(x1, x2)
	minY, maxY := math.Min(y1, y2), math.Max(y1, y2)
	half := thickness / 2
	switch {
	case minY == maxY:
		minY -= half
		maxY += half
	case minX == maxX:
		minX -= half
		maxX += half
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
