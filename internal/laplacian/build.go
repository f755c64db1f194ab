// Package laplacian builds and solves the differential-coordinate system
// used to drag a point chain while preserving its local shape.
//
// The chain is treated as a path graph. Every point contributes two rows
// asking its differential coordinate after the edit to equal its original
// differential coordinate rotated and scaled by the similarity that best
// maps its original neighbor offsets onto the new ones. Fixed points
// contribute bias-weighted constraint rows. The overdetermined system is
// solved in the least-squares sense through a Cholesky factorization of its
// normal equations, which is computed once per fixed set and reused for
// every solve.
//
// Unknowns are interleaved as (x0, y0, x1, y1, ...). Every row then touches
// at most three consecutive points, so the normal matrix is banded with
// bandwidth 5 and factorizes in time linear in the chain length.
package laplacian

import (
	"fmt"
	"math"

	"curve-editor/internal/chain"
	"curve-editor/internal/sparse"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultBias is the weight of the fixed-point constraint rows.
const DefaultBias = 10.0

// maxCondition bounds the condition number of the factorized normal matrix.
// Above it the solution is dominated by rounding error.
const maxCondition = 1e15

// Options tune the system built by Build.
type Options struct {
	// Bias scales the constraint rows. Zero or negative means DefaultBias.
	Bias float64
}

func (o Options) bias() float64 {
	if o.Bias > 0 {
		return o.Bias
	}
	return DefaultBias
}

// Build captures points as the original shape and factorizes the system
// for the given fixed indices. Duplicate fixed indices are ignored after
// their first occurrence.
func Build(points []r3.Vec, fixed []int, opts Options) (*System, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrEmptyChain, len(points))
	}
	return assemble(chain.Flatten(points), fixed, opts.bias())
}

// Rebuild refactorizes the system for a new fixed set. Rows are derived
// from the originals captured by Build, not from whatever the chain looks
// like now.
func (s *System) Rebuild(fixed []int) (*System, error) {
	return assemble(s.original, fixed, s.bias)
}

func assemble(original []float64, fixed []int, bias float64) (*System, error) {
	system, rhs, fixed, err := buildMatrix(original, fixed, bias)
	if err != nil {
		return nil, err
	}
	s := &System{
		n:        len(original) / 2,
		bias:     bias,
		original: original,
		fixed:    fixed,
		systemT:  system.Transpose(),
		rhs:      rhs,
	}
	if ok := s.factor.Factorize(system.GramBand()); !ok {
		return nil, fmt.Errorf("%w: normal matrix is not positive definite", ErrSingularSystem)
	}
	if c := s.factor.Cond(); c > maxCondition || math.IsNaN(c) {
		return nil, fmt.Errorf("%w: condition number %.3g", ErrSingularSystem, c)
	}
	return s, nil
}

// buildMatrix returns the system matrix S = [T - L ; bias*E], its right-hand
// side for the original positions, and the deduplicated fixed indices.
// Constraint rows for fixed[k] are 2n+2k (x) and 2n+2k+1 (y).
func buildMatrix(original []float64, fixed []int, bias float64) (*sparse.CSR, *mat.VecDense, []int, error) {
	n := len(original) / 2
	fixed, err := distinctFixed(fixed, n)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(fixed) < 2 {
		return nil, nil, nil, fmt.Errorf("%w: %d fixed point(s) leave rotation and scale unconstrained",
			ErrSingularSystem, len(fixed))
	}

	lap := laplacianMatrix(n)
	var delta mat.VecDense
	lap.MulVecTo(&delta, mat.NewVecDense(2*n, original))

	f := len(fixed)
	st := sparse.NewTriplets(2*n+2*f, 2*n)
	for i := 0; i < n; i++ {
		if err := addSimilarityRows(st, original, delta.RawVector().Data, i); err != nil {
			return nil, nil, nil, err
		}
	}
	// The similarity rows and the Laplacian share coordinates; the
	// accumulator sums them into T - L.
	lap.DoNonZero(func(i, j int, v float64) {
		st.Add(i, j, -v)
	})

	rhs := mat.NewVecDense(2*n+2*f, nil)
	for k, idx := range fixed {
		st.Add(2*n+2*k, 2*idx, bias)
		st.Add(2*n+2*k+1, 2*idx+1, bias)
		rhs.SetVec(2*n+2*k, bias*original[2*idx])
		rhs.SetVec(2*n+2*k+1, bias*original[2*idx+1])
	}
	return st.ToCSR(), rhs, fixed, nil
}

// distinctFixed validates fixed indices and drops repeats, keeping order.
func distinctFixed(fixed []int, n int) ([]int, error) {
	seen := make(map[int]bool, len(fixed))
	out := make([]int, 0, len(fixed))
	for _, idx := range fixed {
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, idx, n)
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out, nil
}

// neighbors returns the path-graph neighbors of i in an n point chain.
func neighbors(i, n int) []int {
	nb := make([]int, 0, 2)
	if i > 0 {
		nb = append(nb, i-1)
	}
	if i < n-1 {
		nb = append(nb, i+1)
	}
	return nb
}

// laplacianMatrix returns the 2n×2n uniform Laplacian of the path graph
// acting on interleaved coordinates.
func laplacianMatrix(n int) *sparse.CSR {
	st := sparse.NewTriplets(2*n, 2*n)
	for i := 0; i < n; i++ {
		w := -0.5
		if i == 0 || i == n-1 {
			w = -1
		}
		for _, j := range neighbors(i, n) {
			st.Add(2*i, 2*j, w)
			st.Add(2*i+1, 2*j+1, w)
		}
		st.Add(2*i, 2*i, 1)
		st.Add(2*i+1, 2*i+1, 1)
	}
	return st.ToCSR()
}

// addSimilarityRows adds rows 2i and 2i+1 of the operator T, which maps
// unknown positions to the original differential coordinate of point i
// transformed by the similarity fitted to i's neighbor offsets.
//
// The fit solves C·(a, b) ≈ r for the stacked offsets r = p_k - p_i of the
// neighbors k, with C rows (r.x, -r.y) and (r.y, r.x). M = (CᵀC)⁻¹Cᵀ gives
// (a, b) as a linear function of the offsets, and so of the positions.
func addSimilarityRows(st *sparse.Triplets, p, delta []float64, i int) error {
	n := len(p) / 2
	nb := neighbors(i, n)
	u := len(nb)

	c := mat.NewDense(2*u, 2, nil)
	for j, k := range nb {
		rx, ry := p[2*k]-p[2*i], p[2*k+1]-p[2*i+1]
		c.Set(j, 0, rx)
		c.Set(j, 1, -ry)
		c.Set(j+u, 0, ry)
		c.Set(j+u, 1, rx)
	}

	var ctc, inv, m mat.Dense
	ctc.Mul(c.T(), c)
	if tr := mat.Trace(&ctc); !(tr > 0) || math.IsInf(tr, 0) {
		return fmt.Errorf("%w: neighbors of point %d coincide with it", ErrDegenerateNeighborhood, i)
	}
	if err := inv.Inverse(&ctc); err != nil {
		return fmt.Errorf("%w: point %d: %v", ErrDegenerateNeighborhood, i, err)
	}
	m.Mul(&inv, c.T())

	dx, dy := delta[2*i], delta[2*i+1]
	for j, k := range nb {
		xx := dx*m.At(0, j) - dy*m.At(1, j)
		xy := dx*m.At(0, j+u) - dy*m.At(1, j+u)
		yx := dy*m.At(0, j) + dx*m.At(1, j)
		yy := dy*m.At(0, j+u) + dx*m.At(1, j+u)

		// Offsets are p_k - p_i: each coefficient lands on k and, negated, on i.
		xi, yi, xk, yk := 2*i, 2*i+1, 2*k, 2*k+1
		st.Add(xi, xk, xx)
		st.Add(xi, xi, -xx)
		st.Add(xi, yk, xy)
		st.Add(xi, yi, -xy)
		st.Add(yi, xk, yx)
		st.Add(yi, xi, -yx)
		st.Add(yi, yk, yy)
		st.Add(yi, yi, -yy)
	}
	return nil
}
