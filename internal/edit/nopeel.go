package edit

import (
	"curve-editor/internal/laplacian"
	"curve-editor/pkg/geometry"
)

// frameNoPeeling: the selection is built up in Selecting, then each press
// on a selected point starts a gesture pinning everything unselected.
func (s *Session) frameNoPeeling(p Pointer, pressed, released bool) (bool, error) {
	switch s.state {
	case Selecting:
		if p.Held {
			if idx, ok := s.pick(p.Pos); ok && !s.isSelected(idx) {
				s.selected = append(s.selected, idx)
			}
		}
		if released && len(s.selected) > 0 {
			s.state = Dragging
		}
		return false, nil

	case Dragging:
		switch {
		case pressed:
			idx, ok := s.pick(p.Pos)
			if !ok || !s.isSelected(idx) {
				s.clearSelection()
				s.state = Selecting
				return false, nil
			}
			s.reference = p.Pos
			return s.startPinned(idx)
		case p.Held:
			if s.gesture != nil {
				return s.dragPinned(p)
			}
		case released:
			s.gesture = nil
		}
	}
	return false, nil
}

// startPinned moves anchor to the front of the selection and factorizes the
// system fixing every unselected point plus the anchor.
func (s *Session) startPinned(anchor int) (bool, error) {
	sel := []int{anchor}
	for _, i := range s.selected {
		if i != anchor {
			sel = append(sel, i)
		}
	}
	s.selected = sel

	fixed := []int{anchor}
	for i := 0; i < s.chain.Len(); i++ {
		if !s.isSelected(i) {
			fixed = append(fixed, i)
		}
	}

	g := s.begin(anchor)
	g.fixed = fixed
	if len(fixed) < 2 {
		return false, nil
	}
	sys, err := laplacian.Build(g.start, fixed, s.opts)
	if err != nil {
		return s.abort(err)
	}
	g.system = sys
	return false, nil
}

func (s *Session) dragPinned(p Pointer) (bool, error) {
	g := s.gesture
	w := s.moveAnchor(g, p.Pos)
	if g.system == nil {
		s.translate(g, w)
		return true, nil
	}
	// Targets come from the gesture start, not the chain, so the
	// least-squares residual of one frame never feeds into the next.
	fixed := g.system.Fixed()
	targets := make([]geometry.Point2D, len(fixed))
	for k, idx := range fixed {
		if idx == g.anchor {
			targets[k] = geometry.XY(w)
		} else {
			targets[k] = geometry.XY(g.start[idx])
		}
	}
	out, err := g.system.Solve(targets)
	if err != nil {
		return s.abort(err)
	}
	for i, pt := range out {
		s.chain.SetXY(i, pt.X, pt.Y)
	}
	return true, nil
}
