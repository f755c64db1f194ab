package sketch

import (
	"fmt"
	"math"

	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// Shape names a procedural chain.
type Shape string

const (
	ShapeLine Shape = "line"
	ShapeArc  Shape = "arc"
	ShapeWave Shape = "wave"
)

// Shapes lists the supported shapes.
var Shapes = []Shape{ShapeLine, ShapeArc, ShapeWave}

// Generate returns n points of the named shape, spacing apart along the
// curve and centered on the origin.
func Generate(shape Shape, n int, spacing float64) ([]r3.Vec, error) {
	if n < 2 {
		return nil, fmt.Errorf("sketch: shape needs at least 2 points, got %d", n)
	}
	var pts []r3.Vec
	switch shape {
	case ShapeLine:
		pts = Line(n, spacing)
	case ShapeArc:
		pts = Arc(n, spacing, float64(n)*spacing/math.Pi)
	case ShapeWave:
		pts = Wave(n, spacing, 4*spacing)
	default:
		return nil, fmt.Errorf("sketch: unknown shape %q", shape)
	}
	c := geometry.BoundingBox(pts).Center()
	return Transform(pts, geometry.Translation(-c.X, -c.Y)), nil
}

// Line returns n points on the x axis.
func Line(n int, spacing float64) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: float64(i) * spacing}
	}
	return pts
}

// Arc returns n points on a circle of the given radius, consecutive points a
// chord of length spacing apart.
func Arc(n int, spacing, radius float64) []r3.Vec {
	step := 2 * math.Asin(math.Min(1, spacing/(2*radius)))
	pts := make([]r3.Vec, n)
	for i := range pts {
		sin, cos := math.Sincos(math.Pi/2 - float64(i)*step)
		pts[i] = r3.Vec{X: radius * cos, Y: radius * sin}
	}
	return pts
}

// Wave returns n points of a sine wave sampled every spacing along x.
func Wave(n int, spacing, amplitude float64) []r3.Vec {
	pts := make([]r3.Vec, n)
	period := 16 * spacing
	for i := range pts {
		x := float64(i) * spacing
		pts[i] = r3.Vec{X: x, Y: amplitude * math.Sin(2*math.Pi*x/period)}
	}
	return pts
}

// Transform applies t to every point.
func Transform(pts []r3.Vec, t geometry.AffineTransform) []r3.Vec {
	out := make([]r3.Vec, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}
