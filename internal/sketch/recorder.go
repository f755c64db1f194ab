// Package sketch turns pointer samples into evenly spaced point chains and
// generates procedural chains for tools and tests.
package sketch

import (
	"errors"

	"curve-editor/internal/chain"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultMaxPoints caps the length of a recorded stroke.
const DefaultMaxPoints = 400

// acceptRatio is the fraction of a segment a sample must travel before it
// produces a point.
const acceptRatio = 0.9

var ErrEmptyStroke = errors.New("sketch: stroke has fewer than two points")

// Recorder accumulates a stroke. Consecutive points are exactly one segment
// length apart.
type Recorder struct {
	segment   float64
	maxPoints int
	points    []r3.Vec
}

// NewRecorder returns a recorder with the given segment length. Non-positive
// arguments select the package defaults.
func NewRecorder(segment float64, maxPoints int) *Recorder {
	if segment <= 0 {
		segment = 1.0 / 20
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Recorder{segment: segment, maxPoints: maxPoints}
}

// Add offers a sample and reports whether it produced a point. The first
// sample is taken as is; later ones are accepted once they are at least
// 0.9 segments from the last point, and the new point is placed one
// segment along that direction.
func (r *Recorder) Add(sample r3.Vec) bool {
	if len(r.points) == 0 {
		r.points = append(r.points, sample)
		return true
	}
	if len(r.points) >= r.maxPoints {
		return false
	}
	last := r.points[len(r.points)-1]
	d := r3.Sub(sample, last)
	d.Z = 0
	dist := r3.Norm(d)
	if dist < acceptRatio*r.segment {
		return false
	}
	next := r3.Add(last, r3.Scale(r.segment/dist, d))
	r.points = append(r.points, next)
	return true
}

// Len returns the number of recorded points.
func (r *Recorder) Len() int {
	return len(r.points)
}

// Full reports whether the point cap was reached.
func (r *Recorder) Full() bool {
	return len(r.points) >= r.maxPoints
}

// Points returns a copy of the recorded points.
func (r *Recorder) Points() []r3.Vec {
	return append([]r3.Vec(nil), r.points...)
}

// Chain finishes the stroke as a chain. The recorder keeps its points.
func (r *Recorder) Chain() (*chain.Chain, error) {
	if len(r.points) < 2 {
		return nil, ErrEmptyStroke
	}
	return chain.New(r.points)
}

// Reset discards the stroke.
func (r *Recorder) Reset() {
	r.points = r.points[:0]
}
