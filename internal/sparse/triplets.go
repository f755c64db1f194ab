// Package sparse provides the small amount of sparse linear algebra the
// Laplacian editor needs: an accumulating coordinate builder and a
// compressed sparse row matrix that plugs into gonum's mat.Matrix.
package sparse

import (
	"github.com/emirpasic/gods/maps/treemap"
	"gonum.org/v1/gonum/mat"
)

type coord struct {
	row, col int
}

// coordComparator orders coordinates row-major so that iteration yields
// entries in compressed-row order.
func coordComparator(a, b interface{}) int {
	ca, cb := a.(coord), b.(coord)
	switch {
	case ca.row < cb.row:
		return -1
	case ca.row > cb.row:
		return 1
	case ca.col < cb.col:
		return -1
	case ca.col > cb.col:
		return 1
	}
	return 0
}

// Triplets accumulates (row, col, value) entries of a sparse matrix.
// Adding to a coordinate that already holds a value sums the two.
type Triplets struct {
	rows, cols int
	entries    *treemap.Map
}

// NewTriplets returns an empty r×c accumulator.
func NewTriplets(r, c int) *Triplets {
	if r <= 0 || c <= 0 {
		panic(mat.ErrZeroLength)
	}
	return &Triplets{rows: r, cols: c, entries: treemap.NewWith(coordComparator)}
}

// Dims returns the matrix dimensions.
func (t *Triplets) Dims() (r, c int) {
	return t.rows, t.cols
}

// Add accumulates v into (i, j).
func (t *Triplets) Add(i, j int, v float64) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	k := coord{i, j}
	if old, ok := t.entries.Get(k); ok {
		v += old.(float64)
	}
	t.entries.Put(k, v)
}

// At returns the accumulated value at (i, j).
func (t *Triplets) At(i, j int) float64 {
	if v, ok := t.entries.Get(coord{i, j}); ok {
		return v.(float64)
	}
	return 0
}

// Len returns the number of distinct coordinates stored.
func (t *Triplets) Len() int {
	return t.entries.Size()
}

// ToCSR converts the accumulated entries into compressed sparse rows.
// Entries that summed to exactly zero are dropped.
func (t *Triplets) ToCSR() *CSR {
	m := &CSR{
		rows:   t.rows,
		cols:   t.cols,
		indptr: make([]int, t.rows+1),
		ind:    make([]int, 0, t.entries.Size()),
		data:   make([]float64, 0, t.entries.Size()),
	}
	it := t.entries.Iterator()
	for it.Next() {
		k := it.Key().(coord)
		v := it.Value().(float64)
		if v == 0 {
			continue
		}
		m.indptr[k.row+1]++
		m.ind = append(m.ind, k.col)
		m.data = append(m.data, v)
	}
	for i := 0; i < t.rows; i++ {
		m.indptr[i+1] += m.indptr[i]
	}
	return m
}
