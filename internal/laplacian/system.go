package laplacian

import (
	"fmt"

	"curve-editor/internal/chain"
	"curve-editor/internal/sparse"
	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// System is a factorized differential-coordinate system for one fixed set.
// It is disposable: rebuild it when the fixed set changes, drop it when the
// gesture ends. A System is not safe for concurrent use.
type System struct {
	n        int
	bias     float64
	original []float64 // interleaved x and y coordinates, never modified
	fixed    []int

	factor  mat.BandCholesky // of SᵀS
	systemT *sparse.CSR      // Sᵀ, projects the right-hand side
	rhs     *mat.VecDense
}

// Len returns the number of chain points the system solves for.
func (s *System) Len() int {
	return s.n
}

// Fixed returns the fixed indices in constraint-row order.
func (s *System) Fixed() []int {
	return append([]int(nil), s.fixed...)
}

// Bias returns the constraint row weight.
func (s *System) Bias() float64 {
	return s.bias
}

// Original returns the original position of point i.
func (s *System) Original(i int) geometry.Point2D {
	return geometry.Point2D{X: s.original[2*i], Y: s.original[2*i+1]}
}

// Solve computes new positions for every point given one target per fixed
// index, in the order returned by Fixed. The factorization is reused; only
// the right-hand side changes.
//
// Fixed points are not copied through: their solved positions are the
// least-squares approximation of the targets.
func (s *System) Solve(targets []geometry.Point2D) ([]geometry.Point2D, error) {
	f := len(s.fixed)
	if len(targets) != f {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrTargetCount, len(targets), f)
	}
	n := s.n
	for k, t := range targets {
		s.rhs.SetVec(2*n+2*k, s.bias*t.X)
		s.rhs.SetVec(2*n+2*k+1, s.bias*t.Y)
	}

	var b, x mat.VecDense
	s.systemT.MulVecTo(&b, s.rhs)
	if err := s.factor.SolveVecTo(&x, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularSystem, err)
	}

	out := make([]geometry.Point2D, n)
	for i := range out {
		out[i] = geometry.Point2D{X: x.AtVec(2 * i), Y: x.AtVec(2*i + 1)}
		if !out[i].IsFinite() {
			return nil, fmt.Errorf("%w: non-finite position for point %d", ErrSingularSystem, i)
		}
	}
	return out, nil
}

// SolveChain reads the targets of the fixed points from c, solves, and
// writes the result back into c. On error c is left untouched.
func (s *System) SolveChain(c *chain.Chain) error {
	if c.Len() != s.n {
		return fmt.Errorf("%w: system has %d points, chain has %d", chain.ErrLengthChanged, s.n, c.Len())
	}
	targets := make([]geometry.Point2D, len(s.fixed))
	for k, idx := range s.fixed {
		targets[k] = geometry.XY(c.At(idx))
	}
	out, err := s.Solve(targets)
	if err != nil {
		return err
	}
	for i, p := range out {
		c.SetXY(i, p.X, p.Y)
	}
	return nil
}
