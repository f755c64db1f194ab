// Package canvas provides the chain canvas: a raster that draws the edited
// chain and feeds mouse input to the application state.
package canvas

import (
	"image"
	"log"

	"curve-editor/internal/app"
	"curve-editor/internal/edit"
	"curve-editor/internal/render"
	"curve-editor/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

var (
	_ desktop.Mouseable = (*ChainCanvas)(nil)
	_ desktop.Hoverable = (*ChainCanvas)(nil)
	_ fyne.Draggable    = (*ChainCanvas)(nil)
)

// ChainCanvas displays the chain of an app.State and turns mouse events
// into pointer frames.
type ChainCanvas struct {
	widget.BaseWidget

	state    *app.State
	renderer *render.Renderer
	raster   *fynecanvas.Raster

	held   bool
	last   fyne.Position
	aspect float32

	// Callbacks
	onError func(err error)
}

// NewChainCanvas creates a canvas bound to state.
func NewChainCanvas(state *app.State) *ChainCanvas {
	cc := &ChainCanvas{
		state:    state,
		renderer: render.NewRenderer(state.Projection(), render.DefaultStyle()),
	}
	cc.raster = fynecanvas.NewRaster(cc.draw)
	cc.raster.ScaleMode = fynecanvas.ImageScalePixels
	cc.raster.SetMinSize(fyne.NewSize(640, 480))

	state.On(app.EventChainChanged, func(interface{}) { cc.Refresh() })
	state.On(app.EventSelectionChanged, func(interface{}) { cc.Refresh() })
	state.On(app.EventModeChanged, func(interface{}) { cc.Refresh() })

	cc.ExtendBaseWidget(cc)
	return cc
}

// OnError sets the callback for gesture failures.
func (cc *ChainCanvas) OnError(fn func(err error)) {
	cc.onError = fn
}

// CreateRenderer returns a renderer around the chain raster.
func (cc *ChainCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}

// Resize keeps the world aspect ratio: the shorter window side spans
// [-1, 1] in world units.
func (cc *ChainCanvas) Resize(size fyne.Size) {
	cc.BaseWidget.Resize(size)
	if size.Width <= 0 || size.Height <= 0 {
		return
	}
	aspect := size.Width / size.Height
	if aspect == cc.aspect {
		return
	}
	cc.aspect = aspect
	ax, ay := 1.0, 1.0
	if aspect >= 1 {
		ax = float64(aspect)
	} else {
		ay = 1 / float64(aspect)
	}
	cc.state.SetProjection(geometry.Ortho(-ax, ax, -ay, ay, -1, 1))
}

func (cc *ChainCanvas) draw(w, h int) image.Image {
	points, overlay := cc.state.Scene()
	cc.renderer.SetProjection(cc.state.Projection())
	return cc.renderer.Render(points, overlay, w, h)
}

// toNDC maps a widget position to normalized device coordinates.
func (cc *ChainCanvas) toNDC(pos fyne.Position) geometry.Point2D {
	size := cc.Size()
	return render.FromPixel(float64(pos.X), float64(pos.Y), int(size.Width), int(size.Height))
}

func (cc *ChainCanvas) frame(pos fyne.Position) {
	cc.last = pos
	err := cc.state.HandlePointer(edit.Pointer{Pos: cc.toNDC(pos), Held: cc.held})
	if err != nil {
		log.Printf("Pointer frame failed: %v", err)
		if cc.onError != nil {
			cc.onError(err)
		}
	}
}

// MouseDown starts a press with the primary button.
func (cc *ChainCanvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	cc.held = true
	cc.frame(ev.Position)
}

// MouseUp ends a press.
func (cc *ChainCanvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !cc.held {
		return
	}
	cc.held = false
	cc.frame(ev.Position)
}

// MouseIn is a no-op; a press only starts on MouseDown.
func (cc *ChainCanvas) MouseIn(ev *desktop.MouseEvent) {}

// MouseMoved feeds hover and drag motion.
func (cc *ChainCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if cc.held {
		cc.frame(ev.Position)
	}
}

// MouseOut releases a press that leaves the canvas.
func (cc *ChainCanvas) MouseOut() {
	if cc.held {
		cc.held = false
		cc.frame(cc.last)
	}
}

// Dragged is delivered instead of MouseMoved while the button is down.
func (cc *ChainCanvas) Dragged(ev *fyne.DragEvent) {
	if cc.held {
		cc.frame(ev.Position)
	}
}

// DragEnd is a no-op; MouseUp delivers the release.
func (cc *ChainCanvas) DragEnd() {}
