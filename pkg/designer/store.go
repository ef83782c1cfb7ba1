package designer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docdesigner/pkg/layout"
	"github.com/matzehuels/docdesigner/pkg/observability"
	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/preset"
	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// Publisher receives changed state for remote mirroring. Calls must not
// block; [mirror.Dispatcher] satisfies it.
type Publisher interface {
	Upsert(t *template.Template)
	Delete(templateID string)
	SetActive(templateID string)
}

// Op names a store operation in change events.
type Op string

// Store operations.
const (
	OpCreateTemplate    Op = "createTemplate"
	OpDeleteTemplate    Op = "deleteTemplate"
	OpSetDefault        Op = "setDefaultTemplate"
	OpSetActive         Op = "setActiveTemplate"
	OpUpdateTemplate    Op = "updateTemplate"
	OpUpdatePage        Op = "updatePageSettings"
	OpUpdateStyles      Op = "updateStyles"
	OpResetTemplate     Op = "resetTemplate"
	OpImportTemplate    Op = "importTemplate"
	OpAddModule         Op = "addModule"
	OpRemoveModule      Op = "removeModule"
	OpUpdateModuleCfg   Op = "updateModuleConfig"
	OpUpdateModuleWidth Op = "updateModuleWidth"
	OpDuplicateModule   Op = "duplicateModule"
	OpReorderModules    Op = "reorderModules"
	OpSelectModule      Op = "selectModule"
)

// Event describes a settled change.
type Event struct {
	Op         Op
	TemplateID string
	ModuleID   string
}

// Store owns the template collection.
type Store struct {
	mu        sync.Mutex
	templates []*template.Template
	activeID  string
	selected  string
	version   int
	pending   []Event

	backend persist.Backend
	pub     Publisher
	reg     *registry.Registry
	log     *log.Logger
	now     func() time.Time

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithPublisher sets the remote mirror sink.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.pub = p }
}

// WithRegistry overrides the module registry.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Store) { s.reg = r }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the collection from backend, reconciling it against the
// built-in presets, and returns a ready store. Unreadable data is replaced by
// the presets and logged; Open itself does not fail. The unreadable snapshot
// is moved aside by backends that support it and is otherwise left alone
// until the first mutation.
func Open(ctx context.Context, backend persist.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		reg:     registry.Default(),
		log:     log.Default(),
		now:     time.Now,
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}

	snap, changed, err := persist.Load(ctx, backend, preset.All(s.stamp()), preset.Version)
	if err != nil {
		s.log.Warn("saved templates unreadable, starting from presets", "error", err)
	}
	s.templates = snap.Templates
	s.activeID = snap.ActiveTemplateID
	s.version = snap.Version

	if changed {
		s.save(ctx)
	}
	return s
}

func (s *Store) stamp() time.Time { return s.now().UTC() }

// lock acquires the store mutex. Pair with unlock, which releases it and
// then delivers the events recorded meanwhile.
func (s *Store) lock() { s.mu.Lock() }

func (s *Store) unlock() {
	evs := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, ev := range evs {
		s.emit(ev)
	}
}

func (s *Store) record(op Op, templateID, moduleID string) {
	s.pending = append(s.pending, Event{Op: op, TemplateID: templateID, ModuleID: moduleID})
	observability.Store().OnMutation(string(op), templateID)
}

// commit persists a structural change to t: stamps it, saves the snapshot
// and mirrors t. Caller holds the lock.
func (s *Store) commit(op Op, t *template.Template, moduleID string) {
	t.UpdatedAt = s.stamp()
	s.save(context.Background())
	if s.pub != nil {
		s.pub.Upsert(t.Clone())
	}
	s.record(op, t.ID, moduleID)
}

func (s *Store) snapshotLocked() *persist.Snapshot {
	return &persist.Snapshot{
		Templates:        s.templates,
		ActiveTemplateID: s.activeID,
		Version:          s.version,
	}
}

// save writes the snapshot. Local write failures are logged; the in-memory
// state stays authoritative for this process.
func (s *Store) save(ctx context.Context) {
	start := time.Now()
	err := s.backend.Save(ctx, s.snapshotLocked())
	observability.Store().OnSave(ctx, len(s.templates), time.Since(start), err)
	if err != nil {
		s.log.Error("save templates", "error", err)
	}
}

func (s *Store) find(id string) (int, *template.Template) {
	for i, t := range s.templates {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

func (s *Store) active() *template.Template {
	_, t := s.find(s.activeID)
	return t
}

// =============================================================================
// Subscriptions
// =============================================================================

// Subscribe registers fn for change events and returns a function that
// removes it. fn runs on the mutating goroutine after the store lock is
// released; it may call back into the store.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) emit(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// =============================================================================
// Read accessors
// =============================================================================

// Templates returns copies of every template in stored order.
func (s *Store) Templates() []*template.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*template.Template, len(s.templates))
	for i, t := range s.templates {
		out[i] = t.Clone()
	}
	return out
}

// Template returns a copy of the template with the given id.
func (s *Store) Template(id string) (*template.Template, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, t := s.find(id)
	return t.Clone(), t != nil
}

// ActiveTemplate returns a copy of the active template.
func (s *Store) ActiveTemplate() *template.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active().Clone()
}

// ActiveID returns the active template id.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Selected returns the selected module id, or "".
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Module returns a copy of a module of the active template.
func (s *Store) Module(id string) (template.Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.active()
	if t == nil {
		return template.Module{}, false
	}
	i := t.IndexOf(id)
	if i < 0 {
		return template.Module{}, false
	}
	return t.Layout[i].Clone(), true
}

// Rows packs the active template's layout.
func (s *Store) Rows() []layout.Row {
	t := s.ActiveTemplate()
	if t == nil {
		return nil
	}
	return layout.Pack(t.Layout)
}

// Snapshot returns a copy of the persisted state.
func (s *Store) Snapshot() *persist.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked().Clone()
}

// Registry returns the module registry the store resolves kinds against.
func (s *Store) Registry() *registry.Registry { return s.reg }
