// Package dragdrop implements the drop protocol of the layout canvas.
//
// A [Session] tracks one gesture at a time: a palette kind or an already
// placed module is picked up, drop zones are highlighted while it moves, and
// a drop translates into a single store call. Zones are the gaps of a layout
// with n modules, numbered 0..n, where zone i sits before module i.
//
// Move drops use [Resolve] to turn a zone into the post-removal index that
// [Target.ReorderModules] expects:
//
//	layout [A B C D], drag A (from 0) onto zone 3 → to 2 → [B C A D]
//
// Dropping a module onto either gap next to itself does nothing.
//
// Every terminal event returns the session to [Idle]. The reset runs in a
// deferred call, so it also happens when the target panics.
package dragdrop

import (
	"sync"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// State is the gesture state.
type State int

// Gesture states. Dropped is transient and resolves to Idle as soon as the
// drop has been applied.
const (
	Idle State = iota
	Dragging
	Dropped
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	default:
		return "idle"
	}
}

// NoZone means no drop zone is highlighted.
const NoZone = -1

// Source is the payload being dragged: either a registry kind to insert or
// the layout index of an existing module.
type Source struct {
	Kind string `json:"kind,omitempty"`
	From int    `json:"fromIndex"`
}

// NewModule returns a source that inserts a module of kind.
func NewModule(kind string) Source { return Source{Kind: kind, From: -1} }

// Existing returns a source that moves the module at index from.
func Existing(from int) Source { return Source{From: from} }

// IsNew reports whether the source inserts a new module.
func (s Source) IsNew() bool { return s.Kind != "" }

// Target receives resolved drops. [designer.Store] satisfies it.
type Target interface {
	AddModule(kind string, index int) (template.Module, bool)
	ReorderModules(from, to int) bool
}

// Resolve adjusts a move drop. It reports move=false when dropping the
// module at from onto zone would leave the layout unchanged, which is the
// case for zone == from and zone == from+1. Otherwise to is the index the
// module lands at once it has been removed from the layout.
func Resolve(from, zone int) (to int, move bool) {
	if from < 0 || zone < 0 || zone == from || zone == from+1 {
		return from, false
	}
	if zone > from {
		return zone - 1, true
	}
	return zone, true
}

// Status is an observable view of a session.
type Status struct {
	State  State
	Source Source
	Zone   int
}

// Result describes what a drop did.
type Result struct {
	Applied  bool   `json:"applied"`
	ModuleID string `json:"moduleId,omitempty"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

// Session is the drag state of one canvas. It is safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	state   State
	src     Source
	zone    int
	target  Target
	observe func(Status)
}

// Option configures a Session.
type Option func(*Session)

// WithObserver registers fn to be called after every state change, outside
// the session lock.
func WithObserver(fn func(Status)) Option {
	return func(s *Session) { s.observe = fn }
}

// New returns an idle session that applies drops to target.
func New(target Target, opts ...Option) *Session {
	s := &Session{target: target, zone: NoZone}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{State: s.state, Source: s.src, Zone: s.zone}
}

// Dragging reports whether a gesture is in flight.
func (s *Session) Dragging() bool {
	return s.Status().State == Dragging
}

// Start picks up src. A gesture already in flight is abandoned.
func (s *Session) Start(src Source) error {
	if !src.IsNew() && src.From < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "drag source index %d out of range", src.From)
	}
	s.update(func() {
		s.state = Dragging
		s.src = src
		s.zone = NoZone
	})
	return nil
}

// StartNew picks up a palette kind.
func (s *Session) StartNew(kind string) error {
	if kind == "" {
		return errors.New(errors.ErrCodeInvalidInput, "drag source kind is empty")
	}
	return s.Start(NewModule(kind))
}

// StartMove picks up the module at layout index from.
func (s *Session) StartMove(from int) error { return s.Start(Existing(from)) }

// Hover highlights zone. It is ignored while idle.
func (s *Session) Hover(zone int) {
	if zone < 0 {
		zone = NoZone
	}
	s.update(func() {
		if s.state == Dragging {
			s.zone = zone
		}
	})
}

// Leave clears the highlighted zone.
func (s *Session) Leave() {
	s.update(func() { s.zone = NoZone })
}

// Cancel abandons the gesture.
func (s *Session) Cancel() { s.reset() }

// Drop releases the payload over zone and applies it to the target. A
// negative zone, an idle session or a self-adjacent move are no-ops. The
// session is idle again when Drop returns, whatever the outcome.
func (s *Session) Drop(zone int) Result {
	s.mu.Lock()
	if s.state != Dragging {
		s.mu.Unlock()
		s.reset()
		return Result{}
	}
	src := s.src
	s.state = Dropped
	s.zone = NoZone
	st := s.statusLocked()
	s.mu.Unlock()
	s.notify(st)

	defer s.reset()
	return apply(s.target, src, zone)
}

// Apply resolves a one-shot drop without a session, as used by the HTTP
// API where the whole gesture arrives in one request.
func Apply(t Target, src Source, zone int) Result {
	return apply(t, src, zone)
}

func apply(t Target, src Source, zone int) Result {
	if zone < 0 {
		return Result{From: src.From, To: src.From}
	}
	if src.IsNew() {
		m, ok := t.AddModule(src.Kind, zone)
		return Result{Applied: ok, ModuleID: m.ID, From: -1, To: zone}
	}
	to, move := Resolve(src.From, zone)
	if !move {
		return Result{From: src.From, To: src.From}
	}
	return Result{Applied: t.ReorderModules(src.From, to), From: src.From, To: to}
}

func (s *Session) reset() {
	s.update(func() {
		s.state = Idle
		s.src = Source{}
		s.zone = NoZone
	})
}

func (s *Session) update(fn func()) {
	s.mu.Lock()
	fn()
	st := s.statusLocked()
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) notify(st Status) {
	if s.observe != nil {
		s.observe(st)
	}
}
