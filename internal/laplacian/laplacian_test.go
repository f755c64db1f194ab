package laplacian

import (
	"errors"
	"math"
	"testing"

	"curve-editor/internal/chain"
	"curve-editor/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-8

func line(n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: float64(i)}
	}
	return pts
}

func wave(n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		x := float64(i) * 0.1
		pts[i] = r3.Vec{X: x, Y: 0.3 * math.Sin(7*x), Z: 0.5}
	}
	return pts
}

func xy(pts []r3.Vec) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		out[i] = geometry.XY(p)
	}
	return out
}

func targetsOf(pts []r3.Vec, fixed []int) []geometry.Point2D {
	out := make([]geometry.Point2D, len(fixed))
	for k, idx := range fixed {
		out[k] = geometry.XY(pts[idx])
	}
	return out
}

func diffPoints(t *testing.T, got, want []geometry.Point2D, eps float64) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestLaplacianRows(t *testing.T) {
	const n = 4
	lap := laplacianMatrix(n)
	want := mat.NewDense(2*n, 2*n, nil)
	rows := [][]float64{
		{1, -1, 0, 0},
		{-0.5, 1, -0.5, 0},
		{0, -0.5, 1, -0.5},
		{0, 0, -1, 1},
	}
	for i, row := range rows {
		for j, v := range row {
			want.Set(2*i, 2*j, v)
			want.Set(2*i+1, 2*j+1, v)
		}
	}
	if !mat.Equal(lap, want) {
		t.Errorf("laplacian =\n%v\nwant\n%v", mat.Formatted(lap), mat.Formatted(want))
	}
}

func TestAllFixedIdempotent(t *testing.T) {
	pts := wave(12)
	fixed := make([]int, len(pts))
	for i := range fixed {
		fixed[i] = i
	}
	sys, err := Build(pts, fixed, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve(targetsOf(pts, fixed))
	if err != nil {
		t.Fatal(err)
	}
	diffPoints(t, got, xy(pts), tol)
}

func TestCollinearMidpoint(t *testing.T) {
	pts := line(3)
	sys, err := Build(pts, []int{0, 2}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve(targetsOf(pts, []int{0, 2}))
	if err != nil {
		t.Fatal(err)
	}
	diffPoints(t, got, xy(pts), tol)
}

func TestTranslationPreserved(t *testing.T) {
	pts := line(4)
	delta := geometry.NewPoint2D(0.5, -2)
	sys, err := Build(pts, []int{0, 3}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve([]geometry.Point2D{
		geometry.XY(pts[0]).Add(delta),
		geometry.XY(pts[3]).Add(delta),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := xy(pts)
	for i := range want {
		want[i] = want[i].Add(delta)
	}
	diffPoints(t, got, want, tol)
}

func TestRoundTrip(t *testing.T) {
	pts := wave(10)
	fixed := []int{0, 4, 9}
	sys, err := Build(pts, fixed, Options{Bias: 3})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve(targetsOf(pts, fixed))
	if err != nil {
		t.Fatal(err)
	}
	diffPoints(t, got, xy(pts), tol)

	for i := range pts {
		if o := sys.Original(i); o != geometry.XY(pts[i]) {
			t.Errorf("Original(%d) = %v, want %v", i, o, geometry.XY(pts[i]))
		}
	}
}

func TestRotationPreserved(t *testing.T) {
	// Rotating every fixed target rigidly is reproduced exactly by the free
	// points, because the local similarity fit absorbs the rotation.
	pts := wave(9)
	fixed := []int{0, 8}
	rot := geometry.Rotation(math.Pi / 5)
	sys, err := Build(pts, fixed, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve([]geometry.Point2D{
		geometry.XY(rot.Apply(pts[0])),
		geometry.XY(rot.Apply(pts[8])),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := make([]geometry.Point2D, len(pts))
	for i, p := range pts {
		want[i] = geometry.XY(rot.Apply(p))
	}
	diffPoints(t, got, want, 1e-7)
}

func TestDragMiddle(t *testing.T) {
	pts := line(10)
	fixed := []int{0, 9, 5}
	sys, err := Build(pts, fixed, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve([]geometry.Point2D{{X: 0}, {X: 9}, {X: 5, Y: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if d := got[5].Distance(geometry.NewPoint2D(5, 1)); d > 0.05 {
		t.Errorf("anchor ended %v away from its target", d)
	}
	for i := 1; i < 9; i++ {
		if got[i].Y <= 0 {
			t.Errorf("point %d did not follow the drag: %v", i, got[i])
		}
	}
}

func TestDegenerateNeighborhood(t *testing.T) {
	pts := []r3.Vec{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}
	_, err := Build(pts, []int{0, 2}, Options{})
	if !errors.Is(err, ErrDegenerateNeighborhood) {
		t.Errorf("Build error = %v, want ErrDegenerateNeighborhood", err)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		pts   []r3.Vec
		fixed []int
		want  error
	}{
		{"empty", nil, nil, ErrEmptyChain},
		{"single point", []r3.Vec{{X: 1}}, []int{0}, ErrEmptyChain},
		{"out of range", line(3), []int{0, 3}, ErrIndexOutOfRange},
		{"negative index", line(3), []int{-1, 2}, ErrIndexOutOfRange},
		{"one fixed", line(5), []int{2}, ErrSingularSystem},
		{"same fixed twice", line(5), []int{2, 2}, ErrSingularSystem},
		{"nothing fixed", line(5), nil, ErrSingularSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.pts, tt.fixed, Options{}); !errors.Is(err, tt.want) {
				t.Errorf("Build error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFixedDeduplicated(t *testing.T) {
	sys, err := Build(line(5), []int{4, 0, 4, 2, 0}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{4, 0, 2}, sys.Fixed()); diff != "" {
		t.Errorf("Fixed() mismatch (-want +got):\n%s", diff)
	}
}

func TestSolveTargetCount(t *testing.T) {
	sys, err := Build(line(4), []int{0, 3}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Solve([]geometry.Point2D{{}}); !errors.Is(err, ErrTargetCount) {
		t.Errorf("Solve error = %v, want ErrTargetCount", err)
	}
}

func TestRebuildUsesOriginals(t *testing.T) {
	pts := wave(10)
	c, err := chain.New(pts)
	if err != nil {
		t.Fatal(err)
	}
	sys, err := Build(c.Points(), []int{0, 9, 5}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	c.SetXY(5, 0.5, 1.2)
	if err := sys.SolveChain(c); err != nil {
		t.Fatal(err)
	}
	if c.At(3) == pts[3] {
		t.Fatalf("drag did not move free point 3")
	}

	// A rebuilt system keeps the gesture-start shape: pinning everything
	// fixed back to its original position restores the whole chain.
	re, err := sys.Rebuild([]int{0, 2, 7, 9})
	if err != nil {
		t.Fatal(err)
	}
	got, err := re.Solve(targetsOf(pts, re.Fixed()))
	if err != nil {
		t.Fatal(err)
	}
	diffPoints(t, got, xy(pts), tol)
}

func TestSolveChainKeepsDepth(t *testing.T) {
	pts := wave(6)
	c, _ := chain.New(pts)
	sys, err := Build(c.Points(), []int{0, 5}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	c.SetXY(5, 0.6, 0.4)
	if err := sys.SolveChain(c); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < c.Len(); i++ {
		if c.At(i).Z != pts[i].Z {
			t.Errorf("point %d depth = %g, want %g", i, c.At(i).Z, pts[i].Z)
		}
	}

	short, _ := chain.New(pts[:4])
	if err := sys.SolveChain(short); !errors.Is(err, chain.ErrLengthChanged) {
		t.Errorf("SolveChain(short) error = %v, want ErrLengthChanged", err)
	}
}

func TestMatchesDenseLeastSquares(t *testing.T) {
	pts := wave(15)
	fixed := []int{0, 14, 7, 3}
	targets := targetsOf(pts, fixed)
	targets[2] = targets[2].Add(geometry.NewPoint2D(0.2, 0.4))

	sys, err := Build(pts, fixed, Options{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := sys.Solve(targets)
	if err != nil {
		t.Fatal(err)
	}

	sm, rhs, _, err := buildMatrix(chain.Flatten(pts), fixed, DefaultBias)
	if err != nil {
		t.Fatal(err)
	}
	n := len(pts)
	for k, tg := range targets {
		rhs.SetVec(2*n+2*k, DefaultBias*tg.X)
		rhs.SetVec(2*n+2*k+1, DefaultBias*tg.Y)
	}
	var x mat.VecDense
	if err := x.SolveVec(mat.DenseCopyOf(sm), rhs); err != nil {
		t.Fatal(err)
	}
	want := make([]geometry.Point2D, n)
	for i := range want {
		want[i] = geometry.NewPoint2D(x.AtVec(2*i), x.AtVec(2*i+1))
	}
	diffPoints(t, got, want, 1e-9)
}

func TestNormalMatrixIsBanded(t *testing.T) {
	sys, err := Build(wave(400), []int{0, 399, 200}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if n, k := sys.factor.SymBand(); n != 800 || k != 5 {
		t.Errorf("factor is %d×%d with bandwidth %d, want 800×800 with bandwidth 5", n, n, k)
	}
}

func BenchmarkRebuild400(b *testing.B) {
	pts := wave(400)
	sys, err := Build(pts, []int{0, 399}, Options{})
	if err != nil {
		b.Fatal(err)
	}
	fixed := []int{200}
	for i := 0; i < 400; i++ {
		if i < 180 || i > 220 {
			fixed = append(fixed, i)
		}
	}
	targets := targetsOf(pts, fixed)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		re, err := sys.Rebuild(fixed)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := re.Solve(targets); err != nil {
			b.Fatal(err)
		}
	}
}
