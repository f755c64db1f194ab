// Command dragsim runs a scripted drag on a generated chain without a window
// and reports per-frame solve times.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"curve-editor/internal/chain"
	"curve-editor/internal/edit"
	"curve-editor/internal/laplacian"
	"curve-editor/internal/render"
	"curve-editor/internal/sketch"
	"curve-editor/internal/version"
	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

type options struct {
	shape    sketch.Shape
	n        int
	rotate   float64 // degrees
	policy   edit.Policy
	anchor   int
	selectHW int // no-peeling selection half-width
	dx, dy   float64
	frames   int
	bias     float64
	reuse    bool
}

type result struct {
	start, final []r3.Vec
	selected     []int
	fixed        []int
	frames       []time.Duration
	aborted      error
}

func main() {
	shape := flag.String("shape", "wave", "Chain shape: line, arc or wave")
	n := flag.Int("n", 60, "Number of chain points")
	rotate := flag.Float64("rotate", 0, "Rotate the chain by this many degrees about its center")
	policy := flag.String("policy", "peeling", "Drag policy: peeling or no-peeling")
	anchor := flag.Int("anchor", -1, "Index of the dragged point (-1 = middle)")
	sel := flag.Int("select", 8, "Selection half-width for no-peeling")
	dx := flag.Float64("dx", 0, "Drag offset x, normalized device units")
	dy := flag.Float64("dy", 0.4, "Drag offset y, normalized device units")
	frames := flag.Int("frames", 30, "Number of drag frames")
	bias := flag.Float64("bias", laplacian.DefaultBias, "Fixed-point constraint weight")
	reuse := flag.Bool("reuse", false, "Reuse the factorization while the fixed set is unchanged")
	snapshot := flag.String("snapshot", "", "Write the final chain to this .tiff or .png file")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dragsim %s (built %s)\n", version.String(), version.BuildTime)
		return
	}

	p, err := edit.ParsePolicy(*policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	opts := options{
		shape:    sketch.Shape(*shape),
		n:        *n,
		rotate:   *rotate,
		policy:   p,
		anchor:   *anchor,
		selectHW: *sel,
		dx:       *dx,
		dy:       *dy,
		frames:   *frames,
		bias:     *bias,
		reuse:    *reuse,
	}
	if opts.anchor < 0 {
		opts.anchor = opts.n / 2
	}

	res, err := simulate(opts, log.New(io.Discard, "", 0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed: %v\n", err)
		os.Exit(1)
	}
	report(os.Stdout, opts, res)

	if *snapshot != "" {
		if err := writeSnapshot(*snapshot, res); err != nil {
			fmt.Fprintf(os.Stderr, "Snapshot failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot written to %s\n", *snapshot)
	}
	if res.aborted != nil {
		os.Exit(1)
	}
}

// simulate builds the chain and replays a press, a linear drag and a
// release. Under no-peeling the selection is made first by sweeping over
// the points around the anchor.
func simulate(opts options, logger *log.Logger) (*result, error) {
	if opts.anchor < 0 || opts.anchor >= opts.n {
		return nil, fmt.Errorf("anchor %d outside chain of %d points", opts.anchor, opts.n)
	}
	if opts.frames < 1 {
		return nil, fmt.Errorf("need at least one frame, got %d", opts.frames)
	}
	pts, err := sketch.Generate(opts.shape, opts.n, 1.6/float64(opts.n-1))
	if err != nil {
		return nil, err
	}
	if opts.rotate != 0 {
		center := geometry.BoundingBox(pts).Center()
		pts = sketch.Transform(pts, geometry.RotationAbout(center, opts.rotate*math.Pi/180))
	}
	c, err := chain.New(pts)
	if err != nil {
		return nil, err
	}

	proj := geometry.IdentityProjection()
	s := edit.NewSession(c, edit.NewNearestPicker(proj, 0), edit.Config{
		Policy:             opts.policy,
		Projection:         proj,
		Bias:               opts.bias,
		ReuseFactorization: opts.reuse,
		Logger:             logger,
	})
	res := &result{start: c.Points()}

	frame := func(pos geometry.Point2D, held bool) error {
		_, err := s.Frame(edit.Pointer{Pos: pos, Held: held})
		return err
	}
	at := func(i int) geometry.Point2D {
		screen, _ := proj.Project(c.At(i))
		return screen
	}

	if opts.policy == edit.NoPeeling {
		lo, hi := edit.FreeRange(opts.anchor, opts.selectHW, opts.n)
		for i := lo; i <= hi; i++ {
			if err := frame(at(i), true); err != nil {
				return nil, err
			}
		}
		if err := frame(at(hi), false); err != nil {
			return nil, err
		}
	}

	origin := at(opts.anchor)
	if err := frame(origin, true); err != nil {
		res.aborted = err
		res.final = c.Points()
		return res, nil
	}
	delta := geometry.NewPoint2D(opts.dx, opts.dy)
	for f := 1; f <= opts.frames; f++ {
		pos := origin.Add(delta.Scale(float64(f) / float64(opts.frames)))
		start := time.Now()
		err := frame(pos, true)
		res.frames = append(res.frames, time.Since(start))
		if err != nil {
			res.aborted = err
			break
		}
		res.selected = s.Selected()
		res.fixed = s.Fixed()
	}
	if res.aborted == nil {
		frame(origin.Add(delta), false)
	}
	res.final = c.Points()
	return res, nil
}

func report(w io.Writer, opts options, res *result) {
	fmt.Fprintf(w, "Chain: %s, %d points\n", opts.shape, opts.n)
	fmt.Fprintf(w, "Policy: %s, anchor %d, drag (%.3f, %.3f) over %d frames\n",
		opts.policy, opts.anchor, opts.dx, opts.dy, opts.frames)
	if res.aborted != nil {
		fmt.Fprintf(w, "Gesture aborted: %v\n", res.aborted)
	}
	fmt.Fprintf(w, "Last frame: %d free, %d fixed\n", len(res.selected), len(res.fixed))

	if len(res.frames) > 0 {
		lo, hi, total := res.frames[0], res.frames[0], time.Duration(0)
		for _, d := range res.frames {
			lo, hi, total = min(lo, d), max(hi, d), total+d
		}
		fmt.Fprintf(w, "Frame time: min %v, mean %v, max %v\n", lo, total/time.Duration(len(res.frames)), hi)
	}

	var moved, maxMove float64
	for i := range res.final {
		d := geometry.XY(res.final[i]).Distance(geometry.XY(res.start[i]))
		if d > 1e-9 {
			moved++
		}
		maxMove = max(maxMove, d)
	}
	fmt.Fprintf(w, "Moved points: %.0f, largest displacement %.4f\n", moved, maxMove)
}

func writeSnapshot(path string, res *result) error {
	const width, height = 800, 600
	all := append(append([]r3.Vec(nil), res.start...), res.final...)
	proj := geometry.FitOrtho(geometry.BoundingBox(all), 0.1, float64(width)/height)

	ov := render.NoOverlay
	ov.Selected = res.selected
	ov.Fixed = res.fixed
	if len(res.selected) > 0 {
		ov.Anchor = res.selected[0]
	}
	img := render.NewRenderer(proj, render.DefaultStyle()).Render(res.final, ov, width, height)
	return render.Save(path, img)
}
