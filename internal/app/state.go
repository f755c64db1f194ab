// Package app provides application state, configuration, and events.
package app

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"curve-editor/internal/chain"
	"curve-editor/internal/edit"
	"curve-editor/internal/render"
	"curve-editor/internal/sketch"
	"curve-editor/pkg/geometry"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoChain is returned when editing is requested before a chain exists.
var ErrNoChain = errors.New("no chain to edit")

// Mode is the pointer interpretation.
type Mode int

const (
	ModeSketch Mode = iota // pointer drags record a new stroke
	ModeEdit               // pointer drags deform the chain
)

func (m Mode) String() string {
	switch m {
	case ModeSketch:
		return "Sketch"
	case ModeEdit:
		return "Edit"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// EventType identifies different application events.
type EventType int

const (
	EventChainChanged     EventType = iota // data: nil
	EventSelectionChanged                  // data: []int
	EventModeChanged                       // data: Mode
	EventPolicyChanged                     // data: edit.Policy
	EventSketchFinished                    // data: int point count
	EventGestureAborted                    // data: error
	EventConfigChanged                     // data: Config
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

type event struct {
	t    EventType
	data interface{}
}

// State holds the chain being edited and the interaction around it.
type State struct {
	mu sync.RWMutex

	config Config
	proj   geometry.Projection
	logger *log.Logger

	mode     Mode
	chain    *chain.Chain
	session  *edit.Session
	recorder *sketch.Recorder
	stroking bool

	// Event listeners
	listeners map[EventType][]EventListener
}

// NewState creates an empty state in sketch mode.
func NewState(cfg Config) *State {
	return &State{
		config:    cfg,
		proj:      geometry.IdentityProjection(),
		logger:    log.Default(),
		recorder:  sketch.NewRecorder(cfg.SegmentLength, cfg.MaxPoints),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

func (s *State) emitAll(events []event) {
	for _, e := range events {
		s.Emit(e.t, e.data)
	}
}

// SetLogger replaces the logger used for state and gesture messages. Edit
// sessions pick it up when they are next created.
func (s *State) SetLogger(l *log.Logger) {
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

// Config returns the current settings.
func (s *State) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// SetConfig replaces the settings. An edit in progress is restarted on the
// current chain.
func (s *State) SetConfig(cfg Config) {
	s.mu.Lock()
	policyChanged := cfg.Peeling != s.config.Peeling
	s.config = cfg
	s.recorder = sketch.NewRecorder(cfg.SegmentLength, cfg.MaxPoints)
	s.stroking = false
	s.rebuildSession()
	s.mu.Unlock()

	if policyChanged {
		s.Emit(EventPolicyChanged, cfg.Policy())
	}
	s.Emit(EventConfigChanged, cfg)
}

// SetPeeling switches the drag policy.
func (s *State) SetPeeling(on bool) {
	s.mu.Lock()
	if s.config.Peeling == on {
		s.mu.Unlock()
		return
	}
	s.config.Peeling = on
	if s.session != nil {
		s.session.SetPolicy(s.config.Policy())
	}
	policy := s.config.Policy()
	logger := s.logger
	s.mu.Unlock()

	logger.Printf("Drag policy: %v", policy)
	s.Emit(EventPolicyChanged, policy)
	s.Emit(EventSelectionChanged, []int(nil))
}

// Projection returns the world to device projection.
func (s *State) Projection() geometry.Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proj
}

// SetProjection replaces the projection. Any gesture is ended.
func (s *State) SetProjection(p geometry.Projection) {
	s.mu.Lock()
	s.proj = p
	s.rebuildSession()
	s.mu.Unlock()
	s.Emit(EventChainChanged, nil)
}

// Mode returns the pointer mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode switches the pointer mode. Edit mode needs a chain.
func (s *State) SetMode(m Mode) error {
	s.mu.Lock()
	if m == s.mode {
		s.mu.Unlock()
		return nil
	}
	if m == ModeEdit && s.chain == nil {
		s.mu.Unlock()
		return ErrNoChain
	}
	s.mode = m
	s.recorder.Reset()
	s.stroking = false
	if s.session != nil {
		s.session.Reset()
	}
	s.mu.Unlock()

	s.Emit(EventModeChanged, m)
	return nil
}

// Chain returns a copy of the chain points, or nil.
func (s *State) Chain() []r3.Vec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.chain == nil {
		return nil
	}
	return s.chain.Points()
}

// SetChain replaces the chain and switches to edit mode.
func (s *State) SetChain(points []r3.Vec) error {
	c, err := chain.New(points)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.chain = c
	s.rebuildSession()
	modeChanged := s.mode != ModeEdit
	s.mode = ModeEdit
	s.mu.Unlock()

	s.Emit(EventChainChanged, nil)
	if modeChanged {
		s.Emit(EventModeChanged, ModeEdit)
	}
	return nil
}

// Clear drops the chain and returns to sketch mode.
func (s *State) Clear() {
	s.mu.Lock()
	s.chain = nil
	s.session = nil
	s.recorder.Reset()
	s.stroking = false
	modeChanged := s.mode != ModeSketch
	s.mode = ModeSketch
	s.mu.Unlock()

	s.Emit(EventChainChanged, nil)
	if modeChanged {
		s.Emit(EventModeChanged, ModeSketch)
	}
}

// Selected returns the selected indices of the edit session.
func (s *State) Selected() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	return s.session.Selected()
}

// Scene returns what the canvas should draw: the chain, or the stroke in
// progress, and the edit overlay.
func (s *State) Scene() ([]r3.Vec, render.Overlay) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stroking {
		return s.recorder.Points(), render.NoOverlay
	}
	if s.chain == nil {
		return nil, render.NoOverlay
	}
	ov := render.NoOverlay
	if s.session != nil {
		ov.Selected = s.session.Selected()
		ov.Fixed = s.session.Fixed()
		if a, ok := s.session.Anchor(); ok {
			ov.Anchor = a
		}
	}
	return s.chain.Points(), ov
}

// HandlePointer feeds one pointer sample, in normalized device coordinates.
// A returned error is a gesture failure that has already been recovered
// from; it is also delivered as EventGestureAborted.
func (s *State) HandlePointer(p edit.Pointer) error {
	s.mu.Lock()
	var events []event
	var err error
	switch s.mode {
	case ModeSketch:
		events = s.stroke(p)
	case ModeEdit:
		events, err = s.drag(p)
	}
	s.mu.Unlock()

	s.emitAll(events)
	return err
}

// stroke records a sketch sample. Must hold s.mu.
func (s *State) stroke(p edit.Pointer) []event {
	if !p.Held {
		if !s.stroking {
			return nil
		}
		s.stroking = false
		n := s.recorder.Len()
		c, err := s.recorder.Chain()
		s.recorder.Reset()
		if err != nil {
			s.logger.Printf("Discarding stroke: %v", err)
			return []event{{EventChainChanged, nil}}
		}
		s.chain = c
		s.mode = ModeEdit
		s.rebuildSession()
		s.logger.Printf("Stroke finished with %d points", n)
		return []event{
			{EventChainChanged, nil},
			{EventSketchFinished, n},
			{EventModeChanged, ModeEdit},
		}
	}

	if !s.stroking {
		s.stroking = true
		s.recorder.Reset()
	}
	if s.recorder.Add(s.proj.Unproject(p.Pos, 0)) {
		return []event{{EventChainChanged, nil}}
	}
	return nil
}

// drag forwards to the edit session. Must hold s.mu.
func (s *State) drag(p edit.Pointer) ([]event, error) {
	if s.session == nil {
		return nil, nil
	}
	before := s.session.Selected()
	changed, err := s.session.Frame(p)

	var events []event
	if changed {
		events = append(events, event{EventChainChanged, nil})
	}
	if after := s.session.Selected(); !slices.Equal(before, after) {
		events = append(events, event{EventSelectionChanged, after})
	}
	if err != nil {
		events = append(events, event{EventGestureAborted, err})
	}
	return events, err
}

// rebuildSession starts a fresh session on the current chain. Must hold s.mu.
func (s *State) rebuildSession() {
	if s.chain == nil {
		s.session = nil
		return
	}
	picker := edit.NewNearestPicker(s.proj, s.config.Sensitivity)
	s.session = edit.NewSession(s.chain, picker, edit.Config{
		Policy:             s.config.Policy(),
		Projection:         s.proj,
		SegmentLength:      s.config.SegmentLength,
		Bias:               s.config.Bias,
		ReuseFactorization: s.config.ReuseFactorization,
		Logger:             s.logger,
	})
}
