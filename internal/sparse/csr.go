package sparse

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CSR is an immutable compressed sparse row matrix. It implements
// mat.Matrix, so it can be handed to any gonum routine that reads through
// At, but the hot paths use MulVecTo and GramBand directly.
type CSR struct {
	rows, cols int
	indptr     []int
	ind        []int
	data       []float64
}

var _ mat.Matrix = (*CSR)(nil)

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (r, c int) {
	return m.rows, m.cols
}

// At returns the element at (i, j).
func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	lo, hi := m.indptr[i], m.indptr[i+1]
	k := lo + sort.SearchInts(m.ind[lo:hi], j)
	if k < hi && m.ind[k] == j {
		return m.data[k]
	}
	return 0
}

// T returns an implicit transpose of m.
func (m *CSR) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// NNZ returns the number of stored non-zero entries.
func (m *CSR) NNZ() int {
	return len(m.data)
}

// DoNonZero calls fn for every stored entry in row-major order.
func (m *CSR) DoNonZero(fn func(i, j int, v float64)) {
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			fn(i, m.ind[k], m.data[k])
		}
	}
}

// Transpose returns the explicit compressed transpose of m.
func (m *CSR) Transpose() *CSR {
	t := &CSR{
		rows:   m.cols,
		cols:   m.rows,
		indptr: make([]int, m.cols+1),
		ind:    make([]int, len(m.ind)),
		data:   make([]float64, len(m.data)),
	}
	for _, j := range m.ind {
		t.indptr[j+1]++
	}
	for j := 0; j < m.cols; j++ {
		t.indptr[j+1] += t.indptr[j]
	}
	next := append([]int(nil), t.indptr[:m.cols]...)
	// Rows are visited in order, so each transposed row ends up sorted.
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			j := m.ind[k]
			t.ind[next[j]] = i
			t.data[next[j]] = m.data[k]
			next[j]++
		}
	}
	return t
}

// MulVecTo computes dst = m * x. An empty dst is sized to the row count
// of m.
func (m *CSR) MulVecTo(dst *mat.VecDense, x mat.Vector) {
	if x.Len() != m.cols {
		panic(mat.ErrShape)
	}
	if dst.IsEmpty() {
		dst.ReuseAsVec(m.rows)
	} else if dst.Len() != m.rows {
		panic(mat.ErrShape)
	}
	for i := 0; i < m.rows; i++ {
		var sum float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum += m.data[k] * x.AtVec(m.ind[k])
		}
		dst.SetVec(i, sum)
	}
}

// Bandwidth returns the largest column distance between two stored entries
// of the same row. Entries (j, k) of mᵀm with |j-k| above it are zero.
func (m *CSR) Bandwidth() int {
	var k int
	for i := 0; i < m.rows; i++ {
		lo, hi := m.indptr[i], m.indptr[i+1]
		if hi > lo {
			k = max(k, m.ind[hi-1]-m.ind[lo])
		}
	}
	return k
}

// GramBand returns the symmetric product mᵀm in band storage, with the
// bandwidth reported by Bandwidth.
func (m *CSR) GramBand() *mat.SymBandDense {
	k := min(m.Bandwidth(), m.cols-1)
	g := mat.NewSymBandDense(m.cols, k, nil)
	for i := 0; i < m.rows; i++ {
		lo, hi := m.indptr[i], m.indptr[i+1]
		for a := lo; a < hi; a++ {
			ja, va := m.ind[a], m.data[a]
			// Column indices are sorted, so ja <= jb for b >= a.
			for b := a; b < hi; b++ {
				jb := m.ind[b]
				g.SetSymBand(ja, jb, g.At(ja, jb)+va*m.data[b])
			}
		}
	}
	return g
}
