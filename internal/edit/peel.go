package edit

import (
	"slices"

	"curve-editor/internal/laplacian"
)

// framePeeling: a press on a point starts a gesture; while held, every point
// within the area of effect of the anchor is free and the rest stay where
// they were last solved.
func (s *Session) framePeeling(p Pointer, pressed, released bool) (bool, error) {
	switch s.state {
	case Selecting:
		if !pressed {
			return false, nil
		}
		idx, ok := s.pick(p.Pos)
		if !ok {
			return false, nil
		}
		s.gesture = nil
		s.reference = p.Pos
		s.selected = append(s.selected[:0], idx)
		s.begin(idx)
		s.state = Dragging
		return false, nil

	case Dragging:
		if released || !p.Held {
			s.Reset()
			return false, nil
		}
		return s.peel(p)
	}
	return false, nil
}

func (s *Session) peel(p Pointer) (bool, error) {
	g := s.gesture
	n := s.chain.Len()
	s.aoe = AreaOfEffect(p.Pos, s.reference, s.segLen)
	lo, hi := FreeRange(g.anchor, s.aoe, n)

	s.selected = append(s.selected[:0], g.anchor)
	fixed := []int{g.anchor}
	for i := 0; i < n; i++ {
		switch {
		case i == g.anchor:
		case i >= lo && i <= hi:
			s.selected = append(s.selected, i)
		default:
			fixed = append(fixed, i)
		}
	}

	w := s.moveAnchor(g, p.Pos)
	if len(fixed) < 2 {
		g.system = nil
		g.fixed = fixed
		s.translate(g, w)
		return true, nil
	}

	if g.system == nil || !s.reuse || !slices.Equal(fixed, g.fixed) {
		var sys *laplacian.System
		var err error
		if g.system == nil {
			sys, err = laplacian.Build(g.start, fixed, s.opts)
		} else {
			sys, err = g.system.Rebuild(fixed)
		}
		if err != nil {
			return s.abort(err)
		}
		g.system = sys
	}
	g.fixed = fixed
	if err := g.system.SolveChain(s.chain); err != nil {
		return s.abort(err)
	}
	return true, nil
}
