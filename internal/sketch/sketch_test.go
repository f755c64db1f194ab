package sketch

import (
	"errors"
	"math"
	"testing"

	"curve-editor/internal/laplacian"
	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRecorderSpacing(t *testing.T) {
	const seg = 0.05
	r := NewRecorder(seg, 0)
	if !r.Add(r3.Vec{X: -0.5, Y: 0.1}) {
		t.Fatal("first sample rejected")
	}
	// Samples along a jittery diagonal, closer together than a segment.
	for i := 1; i <= 200; i++ {
		s := float64(i) * 0.013
		r.Add(r3.Vec{X: -0.5 + s, Y: 0.1 + 0.5*s + 0.002*math.Sin(float64(i))})
	}
	pts := r.Points()
	if len(pts) < 10 {
		t.Fatalf("recorded only %d points", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		d := geometry.XY(pts[i]).Distance(geometry.XY(pts[i-1]))
		if !scalar.EqualWithinAbs(d, seg, 1e-12) {
			t.Errorf("segment %d has length %g, want %g", i, d, seg)
		}
	}
}

func TestRecorderThreshold(t *testing.T) {
	r := NewRecorder(0.1, 0)
	r.Add(r3.Vec{})
	if r.Add(r3.Vec{X: 0.089}) {
		t.Errorf("sample below 0.9 segments accepted")
	}
	if !r.Add(r3.Vec{X: 0.0901}) {
		t.Errorf("sample past 0.9 segments rejected")
	}
	if got := r.Points()[1].X; !scalar.EqualWithinAbs(got, 0.1, 1e-15) {
		t.Errorf("second point at x=%g, want 0.1", got)
	}
}

func TestRecorderCap(t *testing.T) {
	r := NewRecorder(0.1, 3)
	for i := 0; i < 10; i++ {
		r.Add(r3.Vec{X: float64(i) * 0.1})
	}
	if r.Len() != 3 || !r.Full() {
		t.Errorf("Len() = %d, Full() = %v; want 3, true", r.Len(), r.Full())
	}
	r.Reset()
	if r.Len() != 0 || r.Full() {
		t.Errorf("Reset left %d points", r.Len())
	}
}

func TestRecorderChain(t *testing.T) {
	r := NewRecorder(0.1, 0)
	r.Add(r3.Vec{})
	if _, err := r.Chain(); !errors.Is(err, ErrEmptyStroke) {
		t.Errorf("Chain() error = %v, want ErrEmptyStroke", err)
	}
	r.Add(r3.Vec{X: 0.2})
	c, err := r.Chain()
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 {
		t.Errorf("chain has %d points, want 2", c.Len())
	}
}

func TestGenerate(t *testing.T) {
	const n, spacing = 24, 0.05
	for _, shape := range Shapes {
		t.Run(string(shape), func(t *testing.T) {
			pts, err := Generate(shape, n, spacing)
			if err != nil {
				t.Fatal(err)
			}
			if len(pts) != n {
				t.Fatalf("got %d points, want %d", len(pts), n)
			}
			c := geometry.BoundingBox(pts).Center()
			if c.Len() > 1e-12 {
				t.Errorf("bounding box centered at %v", c)
			}
			for i := 1; i < n; i++ {
				if d := geometry.XY(pts[i]).Distance(geometry.XY(pts[i-1])); d <= 0 {
					t.Errorf("points %d and %d coincide", i-1, i)
				}
			}
			// Every generated chain must be solvable.
			if _, err := laplacian.Build(pts, []int{0, n - 1}, laplacian.Options{}); err != nil {
				t.Errorf("Build: %v", err)
			}
		})
	}
}

func TestArcChords(t *testing.T) {
	pts := Arc(10, 0.1, 0.5)
	for i := 1; i < len(pts); i++ {
		d := geometry.XY(pts[i]).Distance(geometry.XY(pts[i-1]))
		if !scalar.EqualWithinAbs(d, 0.1, 1e-12) {
			t.Errorf("chord %d = %g, want 0.1", i, d)
		}
		if r := math.Hypot(pts[i].X, pts[i].Y); !scalar.EqualWithinAbs(r, 0.5, 1e-12) {
			t.Errorf("point %d radius %g, want 0.5", i, r)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := Generate(ShapeLine, 1, 0.1); err == nil {
		t.Errorf("Generate accepted a single point")
	}
	if _, err := Generate("spiral", 10, 0.1); err == nil {
		t.Errorf("Generate accepted an unknown shape")
	}
}
