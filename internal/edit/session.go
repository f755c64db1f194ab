// Package edit implements the frame-driven interaction that turns pointer
// input into shape-preserving drags of a point chain.
//
// A Session is a two-state machine (Selecting, Dragging) driven once per
// frame by Frame. The policy chosen at construction decides how the fixed
// set is formed: NoPeeling pins every unselected point and factorizes once
// per gesture, Peeling frees a neighborhood of the anchor that grows with
// drag distance and refactorizes every frame.
package edit

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"curve-editor/internal/chain"
	"curve-editor/internal/laplacian"
	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultSegmentLength is the drag distance, in normalized device
// coordinates, that widens the peeling area of effect by one point.
const DefaultSegmentLength = 1.0 / 20

// ErrGestureAborted wraps every failure that ended a gesture early.
var ErrGestureAborted = errors.New("edit: gesture aborted")

// State is the interaction state.
type State int

const (
	Selecting State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Policy selects how the fixed set is chosen during a drag.
type Policy int

const (
	NoPeeling Policy = iota
	Peeling
)

func (p Policy) String() string {
	switch p {
	case NoPeeling:
		return "no-peeling"
	case Peeling:
		return "peeling"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses the names produced by Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no-peeling", "nopeeling", "off":
		return NoPeeling, nil
	case "peeling", "on":
		return Peeling, nil
	}
	return 0, fmt.Errorf("edit: unknown policy %q", s)
}

// Pointer is the input of one frame.
type Pointer struct {
	Pos  geometry.Point2D // normalized device coordinates
	Held bool             // primary button state
}

// Config configures a Session.
type Config struct {
	Policy Policy

	// Projection maps chain points to normalized device coordinates. The
	// zero value means identity.
	Projection geometry.Projection

	// SegmentLength is the peeling radius unit. Zero means DefaultSegmentLength.
	SegmentLength float64

	// Bias weighs the fixed-point constraints. Zero means laplacian.DefaultBias.
	Bias float64

	// ReuseFactorization skips the per-frame peeling rebuild when the fixed
	// set did not change since the previous frame.
	ReuseFactorization bool

	// Logger receives gesture failures. Nil means log.Default().
	Logger *log.Logger
}

// gesture is the state of one press-drag-release cycle.
type gesture struct {
	anchor int
	start  []r3.Vec // chain at gesture start; the system originals
	depth  float64  // projected depth of the anchor, used to unproject the pointer
	system *laplacian.System
	fixed  []int
	dirty  bool // the chain was written during this gesture
}

// Session edits one chain. It is single-threaded: Frame must not be called
// concurrently, and nothing else may write the chain while a session holds
// a gesture.
type Session struct {
	chain  *chain.Chain
	picker Picker
	proj   geometry.Projection
	policy Policy
	segLen float64
	opts   laplacian.Options
	reuse  bool
	logger *log.Logger

	state     State
	selected  []int
	reference geometry.Point2D
	held      bool
	aoe       int
	gesture   *gesture
}

// NewSession returns a session in the Selecting state.
func NewSession(c *chain.Chain, picker Picker, cfg Config) *Session {
	s := &Session{
		chain:  c,
		picker: picker,
		proj:   cfg.Projection,
		policy: cfg.Policy,
		segLen: cfg.SegmentLength,
		opts:   laplacian.Options{Bias: cfg.Bias},
		reuse:  cfg.ReuseFactorization,
		logger: cfg.Logger,
	}
	if s.proj.IsZero() {
		s.proj = geometry.IdentityProjection()
	}
	if s.segLen <= 0 {
		s.segLen = DefaultSegmentLength
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Frame consumes the pointer state of one frame. It reports whether the
// chain was written. A non-nil error wraps ErrGestureAborted and the
// underlying cause; the chain is then back at its gesture-start shape and
// the session is Selecting again.
func (s *Session) Frame(p Pointer) (bool, error) {
	pressed := p.Held && !s.held
	released := !p.Held && s.held
	s.held = p.Held

	if s.policy == Peeling {
		return s.framePeeling(p, pressed, released)
	}
	return s.frameNoPeeling(p, pressed, released)
}

// Chain returns the edited chain.
func (s *Session) Chain() *chain.Chain {
	return s.chain
}

// State returns the interaction state.
func (s *Session) State() State {
	return s.state
}

// Policy returns the session policy.
func (s *Session) Policy() Policy {
	return s.policy
}

// Selected returns the selected indices. While a gesture is active the
// first entry is the anchor.
func (s *Session) Selected() []int {
	return append([]int(nil), s.selected...)
}

// Fixed returns the fixed indices of the active gesture, or nil.
func (s *Session) Fixed() []int {
	if s.gesture == nil {
		return nil
	}
	return append([]int(nil), s.gesture.fixed...)
}

// Anchor returns the dragged index of the active gesture.
func (s *Session) Anchor() (int, bool) {
	if s.gesture == nil {
		return 0, false
	}
	return s.gesture.anchor, true
}

// AreaOfEffect returns the peeling radius of the last dragging frame.
func (s *Session) AreaOfEffect() int {
	return s.aoe
}

// SetPolicy switches policy. Any gesture in progress ends where it is and
// the selection is cleared.
func (s *Session) SetPolicy(p Policy) {
	s.policy = p
	s.Reset()
}

// Reset ends any gesture, keeping the chain as it is, and clears the
// selection.
func (s *Session) Reset() {
	s.gesture = nil
	s.clearSelection()
	s.state = Selecting
	s.aoe = 0
}

func (s *Session) pick(pos geometry.Point2D) (int, bool) {
	return s.picker.Pick(pos, s.chain.Points())
}

func (s *Session) isSelected(idx int) bool {
	for _, i := range s.selected {
		if i == idx {
			return true
		}
	}
	return false
}

func (s *Session) clearSelection() {
	s.selected = s.selected[:0]
}

// begin snapshots the chain and starts a gesture on anchor.
func (s *Session) begin(anchor int) *gesture {
	start := s.chain.Snapshot()
	_, depth := s.proj.Project(start[anchor])
	s.gesture = &gesture{anchor: anchor, start: start, depth: depth}
	return s.gesture
}

// moveAnchor puts the anchor under the pointer and returns its new world
// position.
func (s *Session) moveAnchor(g *gesture, pos geometry.Point2D) r3.Vec {
	w := s.proj.Unproject(pos, g.depth)
	s.chain.SetXY(g.anchor, w.X, w.Y)
	g.dirty = true
	return w
}

// translate moves the whole gesture-start chain so the anchor sits at w.
// A lone fixed point leaves rotation and scale free, so the best a solve
// could do is this rigid motion.
func (s *Session) translate(g *gesture, w r3.Vec) {
	d := geometry.XY(w).Sub(geometry.XY(g.start[g.anchor]))
	for i, p := range g.start {
		s.chain.SetXY(i, p.X+d.X, p.Y+d.Y)
	}
	g.dirty = true
}

// abort drops the gesture, restores the gesture-start chain and returns to
// Selecting.
func (s *Session) abort(cause error) (bool, error) {
	changed := false
	if g := s.gesture; g != nil && g.dirty {
		if err := s.chain.Restore(g.start); err != nil {
			s.logger.Printf("edit: restoring chain: %v", err)
		} else {
			changed = true
		}
	}
	s.gesture = nil
	s.clearSelection()
	s.state = Selecting
	s.aoe = 0
	s.logger.Printf("edit: gesture aborted: %v", cause)
	return changed, fmt.Errorf("%w: %w", ErrGestureAborted, cause)
}

// AreaOfEffect returns the peeling radius, in chain-index units, for a
// pointer that moved from reference to pointer.
func AreaOfEffect(pointer, reference geometry.Point2D, segmentLength float64) int {
	if segmentLength <= 0 {
		return 0
	}
	return int(math.Floor(pointer.Sub(reference).Len() / segmentLength))
}

// FreeRange returns the inclusive index range within aoe of anchor,
// clamped to an n point chain.
func FreeRange(anchor, aoe, n int) (lo, hi int) {
	return max(0, anchor-aoe), min(n-1, anchor+aoe)
}
