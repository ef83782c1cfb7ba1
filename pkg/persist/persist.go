// Package persist stores the template collection as a single versioned
// snapshot and reconciles saved snapshots with the built-in presets.
//
// The snapshot is the unit of persistence: every mutation rewrites the whole
// collection together with the active template id and the preset version it
// was written against. On load, [Reconcile] brings an older snapshot up to
// date by appending presets whose ids are missing. Existing templates are
// never modified, so user edits to presets survive upgrades, and presets
// the user deleted come back only when the version changes.
//
// Backends:
//   - [FileBackend]: one JSON file per storage key, written atomically
//   - [MemoryBackend]: in-process storage for tests
//
// Both backends also hold the remote sync queue (see [Op]).
package persist

import (
	"context"
	"fmt"

	"github.com/matzehuels/docdesigner/pkg/template"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "invoice_templates"

// Snapshot is the persisted state of a template collection.
type Snapshot struct {
	Templates        []*template.Template `json:"templates"`
	ActiveTemplateID string               `json:"activeTemplateId"`
	Version          int                  `json:"version"`
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := &Snapshot{
		ActiveTemplateID: s.ActiveTemplateID,
		Version:          s.Version,
		Templates:        make([]*template.Template, len(s.Templates)),
	}
	for i, t := range s.Templates {
		c.Templates[i] = t.Clone()
	}
	return c
}

// Find returns the template with the given id.
func (s *Snapshot) Find(id string) (*template.Template, bool) {
	for _, t := range s.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Backend loads and saves snapshots.
//
// Load returns (nil, nil) when nothing has been saved yet.
type Backend interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

// Quarantiner is implemented by backends that can move an unreadable
// snapshot aside, so that writing a fresh one does not destroy it.
// Quarantine returns where the old data now lives.
type Quarantiner interface {
	Quarantine(ctx context.Context) (string, error)
}

// QueueStore holds mirror writes that could not be delivered.
type QueueStore interface {
	LoadQueue(ctx context.Context) ([]Op, error)
	SaveQueue(ctx context.Context, ops []Op) error
}

// Store is a backend that also keeps a sync queue.
type Store interface {
	Backend
	QueueStore
}

// Reconcile brings a loaded snapshot in line with the current preset set.
// It reports whether the result differs from what was loaded and should be
// written back.
//
//   - no snapshot: the full preset set, active on the first preset
//   - version differs: presets whose id is absent are appended, existing
//     templates are left untouched, version is stamped current
//   - no templates: reset to the full preset set
//   - active id names no template: activation falls back to the first one
//
// presets must not be empty. They are cloned before use.
func Reconcile(s *Snapshot, presets []*template.Template, version int) (*Snapshot, bool) {
	fresh := func() *Snapshot {
		out := &Snapshot{Version: version, Templates: make([]*template.Template, len(presets))}
		for i, p := range presets {
			out.Templates[i] = p.Clone()
		}
		out.ActiveTemplateID = out.Templates[0].ID
		return out
	}

	if s == nil {
		return fresh(), true
	}

	out := s.Clone()
	changed := false

	if out.Version != version {
		have := make(map[string]bool, len(out.Templates))
		for _, t := range out.Templates {
			have[t.ID] = true
		}
		for _, p := range presets {
			if !have[p.ID] {
				out.Templates = append(out.Templates, p.Clone())
			}
		}
		out.Version = version
		changed = true
	}

	if len(out.Templates) == 0 {
		return fresh(), true
	}

	if _, ok := out.Find(out.ActiveTemplateID); !ok {
		out.ActiveTemplateID = out.Templates[0].ID
		changed = true
	}
	return out, changed
}

// Load reads the snapshot from b and reconciles it. A snapshot that cannot
// be read or decoded is replaced by the preset set; the read error is still
// returned so the caller can report it, alongside a usable snapshot.
//
// The unreadable data is never overwritten in place. If b is a
// [Quarantiner] the old snapshot is moved aside and the presets may be
// saved. Otherwise changed is false and the presets stay in memory until
// the caller's next mutation.
func Load(ctx context.Context, b Backend, presets []*template.Template, version int) (*Snapshot, bool, error) {
	s, err := b.Load(ctx)
	if err != nil {
		out, _ := Reconcile(nil, presets, version)
		q, ok := b.(Quarantiner)
		if !ok {
			return out, false, err
		}
		dest, qerr := q.Quarantine(ctx)
		if qerr != nil {
			return out, false, fmt.Errorf("%w (could not move it aside: %v)", err, qerr)
		}
		return out, true, fmt.Errorf("%w (kept as %s)", err, dest)
	}
	out, changed := Reconcile(s, presets, version)
	return out, changed, nil
}
