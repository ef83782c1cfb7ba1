package designer

import (
	"slices"

	"github.com/matzehuels/docdesigner/pkg/template"
)

// Direction is a single-step move.
type Direction string

// Move directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// AddModule inserts a module of the given kind into the active template with
// the kind's default width and fully materialised default config. index in
// [0, len) inserts before that position; anything else appends. The new
// module becomes the selection. Unknown kinds are ignored.
func (s *Store) AddModule(kind string, index int) (template.Module, bool) {
	s.lock()
	defer s.unlock()

	t := s.active()
	k, ok := s.reg.Lookup(kind)
	if t == nil || !ok {
		return template.Module{}, false
	}

	m := template.Module{
		ID:     template.NewID(),
		Type:   k.Name,
		Width:  k.DefaultWidth,
		Config: k.Defaults(),
	}
	if index >= 0 && index < len(t.Layout) {
		t.Layout = slices.Insert(t.Layout, index, m)
	} else {
		t.Layout = append(t.Layout, m)
	}
	s.selected = m.ID

	s.commit(OpAddModule, t, m.ID)
	return m.Clone(), true
}

// RemoveModule deletes a module from the active template, clearing the
// selection if it pointed at it.
func (s *Store) RemoveModule(id string) bool {
	s.lock()
	defer s.unlock()

	t, i := s.activeModule(id)
	if i < 0 {
		return false
	}
	t.Layout = slices.Delete(t.Layout, i, i+1)
	if s.selected == id {
		s.selected = ""
	}
	s.commit(OpRemoveModule, t, id)
	return true
}

// UpdateModuleConfig shallow-merges partial into a module's stored config.
// Keys not in partial are left as they are.
func (s *Store) UpdateModuleConfig(id string, partial map[string]any) bool {
	s.lock()
	defer s.unlock()

	t, i := s.activeModule(id)
	if i < 0 || len(partial) == 0 {
		return false
	}
	t.Layout[i].Config = t.Layout[i].Config.Merge(partial)
	s.commit(OpUpdateModuleCfg, t, id)
	return true
}

// UpdateModuleWidth changes a module's width class.
func (s *Store) UpdateModuleWidth(id string, w template.Width) bool {
	s.lock()
	defer s.unlock()

	t, i := s.activeModule(id)
	if i < 0 || !w.Valid() {
		return false
	}
	t.Layout[i].Width = w
	s.commit(OpUpdateModuleWidth, t, id)
	return true
}

// DuplicateModule inserts a deep copy of a module, with a fresh id, right
// after it and selects the copy.
func (s *Store) DuplicateModule(id string) (template.Module, bool) {
	s.lock()
	defer s.unlock()

	t, i := s.activeModule(id)
	if i < 0 {
		return template.Module{}, false
	}
	c := t.Layout[i].Clone()
	c.ID = template.NewID()
	t.Layout = slices.Insert(t.Layout, i+1, c)
	s.selected = c.ID

	s.commit(OpDuplicateModule, t, c.ID)
	return c.Clone(), true
}

// MoveModule swaps a module with its neighbour. Moves past either end do
// nothing.
func (s *Store) MoveModule(id string, dir Direction) bool {
	s.lock()
	defer s.unlock()

	t, i := s.activeModule(id)
	if i < 0 {
		return false
	}
	to := i + 1
	if dir == Up {
		to = i - 1
	} else if dir != Down {
		return false
	}
	if to < 0 || to >= len(t.Layout) {
		return false
	}
	return s.reorderLocked(t, i, to)
}

// ReorderModules removes the module at from and reinserts it at to, where
// to is an index into the layout after the removal. A to past the end
// appends. Out-of-range from, negative to and from == to do nothing.
func (s *Store) ReorderModules(from, to int) bool {
	s.lock()
	defer s.unlock()

	t := s.active()
	if t == nil {
		return false
	}
	return s.reorderLocked(t, from, to)
}

func (s *Store) reorderLocked(t *template.Template, from, to int) bool {
	if from < 0 || from >= len(t.Layout) || to < 0 || from == to {
		return false
	}
	m := t.Layout[from]
	rest := slices.Delete(slices.Clone(t.Layout), from, from+1)
	if to > len(rest) {
		to = len(rest)
	}
	t.Layout = slices.Insert(rest, to, m)

	s.commit(OpReorderModules, t, m.ID)
	return true
}

// SelectModule sets the selection to a module of the active template, or
// clears it when id is empty. Selection is not persisted.
func (s *Store) SelectModule(id string) bool {
	s.lock()
	defer s.unlock()

	if id != "" {
		if _, i := s.activeModule(id); i < 0 {
			return false
		}
	}
	if s.selected == id {
		return true
	}
	s.selected = id
	s.record(OpSelectModule, s.activeID, id)
	return true
}

func (s *Store) activeModule(id string) (*template.Template, int) {
	t := s.active()
	if t == nil {
		return nil, -1
	}
	return t, t.IndexOf(id)
}
