package app

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"curve-editor/internal/edit"
	"curve-editor/internal/laplacian"
	"curve-editor/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

type memPrefs map[string]interface{}

func (m memPrefs) FloatWithFallback(key string, fallback float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return fallback
}

func (m memPrefs) SetFloat(key string, val float64) { m[key] = val }

func (m memPrefs) Bool(key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}

func (m memPrefs) SetBool(key string, val bool) { m[key] = val }

func newTestState() *State {
	s := NewState(DefaultConfig())
	s.SetLogger(log.New(io.Discard, "", 0))
	return s
}

// record counts events by type.
func record(s *State, types ...EventType) map[EventType][]interface{} {
	got := make(map[EventType][]interface{})
	for _, t := range types {
		t := t
		s.On(t, func(data interface{}) { got[t] = append(got[t], data) })
	}
	return got
}

func pointer(x, y float64, held bool) edit.Pointer {
	return edit.Pointer{Pos: geometry.NewPoint2D(x, y), Held: held}
}

func TestConfigDefaults(t *testing.T) {
	got := LoadConfig(memPrefs{})
	if diff := cmp.Diff(DefaultConfig(), got); diff != "" {
		t.Errorf("LoadConfig of empty prefs (-want +got):\n%s", diff)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	want := Config{
		Bias:               4,
		Sensitivity:        0.02,
		SegmentLength:      0.1,
		MaxPoints:          50,
		Peeling:            true,
		ReuseFactorization: true,
	}
	p := memPrefs{}
	want.Store(p)
	if diff := cmp.Diff(want, LoadConfig(p)); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
	if want.Policy() != edit.Peeling {
		t.Errorf("Policy() = %v, want peeling", want.Policy())
	}
}

func TestConfigRejectsInvalid(t *testing.T) {
	p := memPrefs{
		prefBias:          -1.0,
		prefSensitivity:   0.0,
		prefSegmentLength: math.NaN(),
		prefMaxPoints:     1.0,
	}
	if diff := cmp.Diff(DefaultConfig(), LoadConfig(p)); diff != "" {
		t.Errorf("invalid values not replaced (-want +got):\n%s", diff)
	}
}

func TestSketchStroke(t *testing.T) {
	s := newTestState()
	events := record(s, EventSketchFinished, EventModeChanged)

	for x := -0.5; x <= 0.5+1e-9; x += 0.01 {
		if err := s.HandlePointer(pointer(x, 0.2, true)); err != nil {
			t.Fatal(err)
		}
	}
	if pts, _ := s.Scene(); len(pts) < 2 {
		t.Errorf("stroke in progress not visible: %d points", len(pts))
	}
	if s.Chain() != nil {
		t.Errorf("chain exists before the stroke ended")
	}
	if err := s.HandlePointer(pointer(0.5, 0.2, false)); err != nil {
		t.Fatal(err)
	}

	if s.Mode() != ModeEdit {
		t.Fatalf("mode = %v after stroke, want edit", s.Mode())
	}
	pts := s.Chain()
	if len(pts) < 20 || len(pts) > 21 {
		t.Errorf("stroke has %d points, want 20 or 21", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		d := geometry.XY(pts[i]).Distance(geometry.XY(pts[i-1]))
		if math.Abs(d-edit.DefaultSegmentLength) > 1e-12 {
			t.Errorf("segment %d length %g", i, d)
		}
	}
	if diff := cmp.Diff([]interface{}{len(pts)}, events[EventSketchFinished]); diff != "" {
		t.Errorf("sketch finished events (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]interface{}{ModeEdit}, events[EventModeChanged]); diff != "" {
		t.Errorf("mode events (-want +got):\n%s", diff)
	}
}

func TestSketchClickDiscarded(t *testing.T) {
	s := newTestState()
	s.HandlePointer(pointer(0, 0, true))
	s.HandlePointer(pointer(0, 0, false))
	if s.Mode() != ModeSketch || s.Chain() != nil {
		t.Errorf("single click produced mode %v, chain %v", s.Mode(), s.Chain())
	}
}

func line(n int) []r3.Vec {
	pts := make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: -0.45 + 0.1*float64(i)}
	}
	return pts
}

func TestEditDragEmitsEvents(t *testing.T) {
	s := newTestState()
	if err := s.SetChain(line(10)); err != nil {
		t.Fatal(err)
	}
	s.SetPeeling(true)
	events := record(s, EventChainChanged, EventSelectionChanged)

	x := s.Chain()[5].X
	for _, p := range []edit.Pointer{pointer(x, 0, true), pointer(x, 0.12, true)} {
		if err := s.HandlePointer(p); err != nil {
			t.Fatal(err)
		}
	}
	if len(events[EventChainChanged]) != 1 {
		t.Errorf("got %d chain events, want 1", len(events[EventChainChanged]))
	}
	if got := s.Chain()[5].Y; math.Abs(got-0.12) > 0.02 {
		t.Errorf("anchor y = %g, want about 0.12", got)
	}
	_, ov := s.Scene()
	if ov.Anchor != 5 || len(ov.Fixed) == 0 {
		t.Errorf("overlay = %+v, want anchor 5 with fixed points", ov)
	}

	s.HandlePointer(pointer(x, 0.12, false))
	sel := events[EventSelectionChanged]
	if len(sel) != 3 {
		t.Fatalf("got %d selection events, want 3", len(sel))
	}
	if got := sel[len(sel)-1].([]int); len(got) != 0 {
		t.Errorf("selection after release = %v, want empty", got)
	}
}

func TestGestureAbortEvent(t *testing.T) {
	s := newTestState()
	pts := []r3.Vec{{X: -0.3}, {}, {}, {}, {X: 0.3}}
	if err := s.SetChain(pts); err != nil {
		t.Fatal(err)
	}
	s.SetPeeling(true)
	events := record(s, EventGestureAborted)

	s.HandlePointer(pointer(-0.3, 0, true))
	err := s.HandlePointer(pointer(-0.3, 0.12, true))
	if !errors.Is(err, laplacian.ErrDegenerateNeighborhood) {
		t.Fatalf("HandlePointer error = %v, want ErrDegenerateNeighborhood", err)
	}
	if len(events[EventGestureAborted]) != 1 {
		t.Errorf("got %d abort events, want 1", len(events[EventGestureAborted]))
	}
	if diff := cmp.Diff(pts, s.Chain()); diff != "" {
		t.Errorf("chain not restored (-want +got):\n%s", diff)
	}
}

func TestModeSwitching(t *testing.T) {
	s := newTestState()
	if err := s.SetMode(ModeEdit); !errors.Is(err, ErrNoChain) {
		t.Errorf("SetMode(edit) without chain = %v, want ErrNoChain", err)
	}
	if err := s.SetChain(line(4)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetMode(ModeSketch); err != nil {
		t.Fatal(err)
	}
	if s.Chain() == nil {
		t.Errorf("switching to sketch dropped the chain")
	}
	s.Clear()
	if s.Mode() != ModeSketch || s.Chain() != nil {
		t.Errorf("Clear left mode %v, chain %v", s.Mode(), s.Chain())
	}
	if err := s.SetChain(line(1)); err == nil {
		t.Errorf("SetChain accepted a single point")
	}
}

func TestSetConfigPolicy(t *testing.T) {
	s := newTestState()
	events := record(s, EventPolicyChanged, EventConfigChanged)
	cfg := DefaultConfig()
	cfg.Peeling = true
	s.SetConfig(cfg)
	if len(events[EventPolicyChanged]) != 1 || events[EventPolicyChanged][0] != edit.Peeling {
		t.Errorf("policy events = %v", events[EventPolicyChanged])
	}
	if len(events[EventConfigChanged]) != 1 {
		t.Errorf("got %d config events, want 1", len(events[EventConfigChanged]))
	}
	s.SetPeeling(true)
	if len(events[EventPolicyChanged]) != 1 {
		t.Errorf("SetPeeling without a change emitted an event")
	}
}
