// Package render rasterizes a point chain and its edit overlay into an
// RGBA image. It is shared by the desktop canvas and the headless tools.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"curve-editor/pkg/geometry"

	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/spatial/r3"
)

// Style holds colors and sizes, sizes in pixels.
type Style struct {
	Background  color.RGBA
	Line        color.RGBA
	Point       color.RGBA
	Selected    color.RGBA
	Fixed       color.RGBA
	Anchor      color.RGBA
	LineWidth   float64
	PointRadius float64
}

// DefaultStyle returns the editor colors.
func DefaultStyle() Style {
	return Style{
		Background:  color.RGBA{R: 24, G: 24, B: 28, A: 255},
		Line:        color.RGBA{R: 200, G: 200, B: 200, A: 255},
		Point:       color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Selected:    color.RGBA{R: 255, G: 160, B: 0, A: 255},
		Fixed:       color.RGBA{R: 80, G: 140, B: 255, A: 255},
		Anchor:      color.RGBA{R: 255, G: 40, B: 40, A: 255},
		LineWidth:   2,
		PointRadius: 4,
	}
}

// Overlay marks chain indices to highlight. Anchor < 0 means no anchor.
type Overlay struct {
	Selected []int
	Fixed    []int
	Anchor   int
}

// NoOverlay highlights nothing.
var NoOverlay = Overlay{Anchor: -1}

// Renderer draws chains through a projection. A Renderer reuses its
// rasterizer and is not safe for concurrent use.
type Renderer struct {
	proj  geometry.Projection
	style Style
	z     *vector.Rasterizer
}

// NewRenderer returns a renderer. A zero projection means identity.
func NewRenderer(proj geometry.Projection, style Style) *Renderer {
	if proj.IsZero() {
		proj = geometry.IdentityProjection()
	}
	return &Renderer{proj: proj, style: style, z: vector.NewRasterizer(1, 1)}
}

// SetProjection replaces the projection.
func (r *Renderer) SetProjection(proj geometry.Projection) {
	r.proj = proj
}

// Render returns a new w by h image of the chain.
func (r *Renderer) Render(points []r3.Vec, ov Overlay, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Draw(img, points, ov)
	return img
}

// Draw clears dst to the background and draws the chain onto it.
func (r *Renderer) Draw(dst *image.RGBA, points []r3.Vec, ov Overlay) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	draw.Draw(dst, b, image.NewUniform(r.style.Background), image.Point{}, draw.Src)
	if w == 0 || h == 0 || len(points) == 0 {
		return
	}

	px := make([]pixel, len(points))
	for i, p := range points {
		ndc, _ := r.proj.Project(p)
		x, y := ToPixel(ndc, w, h)
		px[i] = pixel{x, y}
	}

	for i := 1; i < len(px); i++ {
		r.fill(dst, segment(px[i-1], px[i], r.style.LineWidth/2), r.style.Line)
	}

	colors := make([]color.RGBA, len(px))
	for i := range colors {
		colors[i] = r.style.Point
	}
	for _, i := range ov.Fixed {
		if i >= 0 && i < len(colors) {
			colors[i] = r.style.Fixed
		}
	}
	for _, i := range ov.Selected {
		if i >= 0 && i < len(colors) {
			colors[i] = r.style.Selected
		}
	}
	if ov.Anchor >= 0 && ov.Anchor < len(colors) {
		colors[ov.Anchor] = r.style.Anchor
	}
	for i, p := range px {
		r.fill(dst, disc(p, r.style.PointRadius), colors[i])
	}
}

type pixel struct{ x, y float64 }

func (r *Renderer) fill(dst *image.RGBA, poly []pixel, col color.RGBA) {
	if len(poly) < 3 {
		return
	}
	b := dst.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
	r.z.MoveTo(float32(poly[0].x), float32(poly[0].y))
	for _, p := range poly[1:] {
		r.z.LineTo(float32(p.x), float32(p.y))
	}
	r.z.ClosePath()
	r.z.Draw(dst, b, image.NewUniform(col), image.Point{})
}

// segment returns the quad covering a line of half-width hw from a to b.
func segment(a, b pixel, hw float64) []pixel {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return nil
	}
	nx, ny := -dy/l*hw, dx/l*hw
	return []pixel{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}
}

// disc approximates a circle with a 16-gon.
func disc(c pixel, radius float64) []pixel {
	const sides = 16
	poly := make([]pixel, sides)
	for i := range poly {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / sides)
		poly[i] = pixel{c.x + radius*cos, c.y + radius*sin}
	}
	return poly
}

// ToPixel maps normalized device coordinates to pixel coordinates of a w by
// h image, y pointing down.
func ToPixel(pt geometry.Point2D, w, h int) (x, y float64) {
	return (pt.X + 1) / 2 * float64(w), (1 - pt.Y) / 2 * float64(h)
}

// FromPixel is the inverse of ToPixel.
func FromPixel(x, y float64, w, h int) geometry.Point2D {
	if w <= 0 || h <= 0 {
		return geometry.Point2D{}
	}
	return geometry.Point2D{X: 2*x/float64(w) - 1, Y: 1 - 2*y/float64(h)}
}
