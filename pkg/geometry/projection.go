package geometry

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/spatial/r3"
)

// Projection maps world-space chain points to normalized device
// coordinates and back. The zero value is not usable; use one of the
// constructors.
type Projection struct {
	m   mgl64.Mat4
	inv mgl64.Mat4
}

// NewProjection wraps a 4x4 column-major projection matrix.
func NewProjection(m mgl64.Mat4) Projection {
	return Projection{m: m, inv: m.Inv()}
}

// IdentityProjection treats world xy as normalized device coordinates.
func IdentityProjection() Projection {
	return NewProjection(mgl64.Ident4())
}

// Ortho returns an orthographic projection of the given view volume.
func Ortho(left, right, bottom, top, near, far float64) Projection {
	return NewProjection(mgl64.Ortho(left, right, bottom, top, near, far))
}

// FitOrtho returns an orthographic projection showing r, padded by margin
// and widened along one axis so that the view keeps the given aspect ratio
// (width / height).
func FitOrtho(r Rect, margin, aspect float64) Projection {
	r = r.Expand(margin)
	c := r.Center()
	w, h := r.Width, r.Height
	if h <= 0 {
		h = 1
	}
	if w <= 0 {
		w = 1
	}
	if aspect > 0 {
		if w/h < aspect {
			w = h * aspect
		} else {
			h = w / aspect
		}
	}
	return Ortho(c.X-w/2, c.X+w/2, c.Y-h/2, c.Y+h/2, -1, 1)
}

// IsZero reports whether p is the unusable zero value.
func (p Projection) IsZero() bool {
	return p.m == mgl64.Mat4{}
}

// Matrix returns the underlying projection matrix.
func (p Projection) Matrix() mgl64.Mat4 {
	return p.m
}

// Project maps v to normalized device coordinates after the perspective
// divide. depth is the normalized z, needed to unproject at the same depth.
func (p Projection) Project(v r3.Vec) (pt Point2D, depth float64) {
	clip := p.m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	w := clip.W()
	if w == 0 {
		w = 1
	}
	return Point2D{X: clip.X() / w, Y: clip.Y() / w}, clip.Z() / w
}

// Unproject maps a normalized device position at the given normalized depth
// back into world space.
func (p Projection) Unproject(pt Point2D, depth float64) r3.Vec {
	world := p.inv.Mul4x1(mgl64.Vec4{pt.X, pt.Y, depth, 1})
	w := world.W()
	if w == 0 {
		w = 1
	}
	return r3.Vec{X: world.X() / w, Y: world.Y() / w, Z: world.Z() / w}
}
