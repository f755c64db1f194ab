// Package chain holds the ordered point chain that the editor deforms.
package chain

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrTooShort is returned when a chain would have fewer than two points.
	ErrTooShort = errors.New("chain needs at least two points")

	// ErrLengthChanged is returned when a snapshot does not match the chain length.
	ErrLengthChanged = errors.New("chain length changed")
)

// Chain is an ordered sequence of points. Only x and y take part in the
// solve; z is carried along untouched.
//
// A Chain is owned by one editing session and is not safe for concurrent use.
type Chain struct {
	points []r3.Vec
}

// New creates a chain from a copy of points.
func New(points []r3.Vec) (*Chain, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooShort, len(points))
	}
	return &Chain{points: append([]r3.Vec(nil), points...)}, nil
}

// Len returns the number of points.
func (c *Chain) Len() int {
	return len(c.points)
}

// At returns point i.
func (c *Chain) At(i int) r3.Vec {
	return c.points[i]
}

// Points returns a copy of all points.
func (c *Chain) Points() []r3.Vec {
	return append([]r3.Vec(nil), c.points...)
}

// SetXY moves point i in the plane, keeping its depth.
func (c *Chain) SetXY(i int, x, y float64) {
	c.points[i].X = x
	c.points[i].Y = y
}

// Snapshot is Points under the name callers use when they intend to Restore.
func (c *Chain) Snapshot() []r3.Vec {
	return c.Points()
}

// Restore overwrites every point from a snapshot of the same length.
func (c *Chain) Restore(snapshot []r3.Vec) error {
	if len(snapshot) != len(c.points) {
		return fmt.Errorf("%w: snapshot has %d points, chain has %d",
			ErrLengthChanged, len(snapshot), len(c.points))
	}
	copy(c.points, snapshot)
	return nil
}

// Flatten returns the 2n vector of interleaved x and y coordinates.
func Flatten(points []r3.Vec) []float64 {
	flat := make([]float64, 2*len(points))
	for i, p := range points {
		flat[2*i] = p.X
		flat[2*i+1] = p.Y
	}
	return flat
}
