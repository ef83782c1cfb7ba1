package designer

import (
	"context"
	"strings"

	"github.com/matzehuels/docdesigner/pkg/preset"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// CopySuffix is appended to the name of a duplicated template.
const CopySuffix = " (Copy)"

// CreateTemplate adds a template cloned from copyFromID, or from the built-in
// blank template when copyFromID is empty or unknown. Every id is freshly
// minted. The new template becomes active.
func (s *Store) CreateTemplate(name, copyFromID string) *template.Template {
	s.lock()
	defer s.unlock()
	return s.createLocked(name, copyFromID).Clone()
}

func (s *Store) createLocked(name, copyFromID string) *template.Template {
	src := preset.Blank()
	if copyFromID != "" {
		if _, t := s.find(copyFromID); t != nil {
			src = t
		}
	}
	if name = strings.TrimSpace(name); name == "" {
		name = template.DefaultName
	}

	t := src.Fork(name, s.stamp())
	s.templates = append(s.templates, t)
	s.activeID = t.ID
	s.selected = ""

	s.save(context.Background())
	if s.pub != nil {
		s.pub.Upsert(t.Clone())
		s.pub.SetActive(t.ID)
	}
	s.record(OpCreateTemplate, t.ID, "")
	return t
}

// DuplicateTemplate creates a copy of id named "<name> (Copy)" and makes it
// active. It reports false if id is unknown.
func (s *Store) DuplicateTemplate(id string) (*template.Template, bool) {
	s.lock()
	defer s.unlock()
	_, src := s.find(id)
	if src == nil {
		return nil, false
	}
	return s.createLocked(src.Name+CopySuffix, id).Clone(), true
}

// DeleteTemplate removes a template. Deleting the only template, or an
// unknown one, does nothing. If the active template is removed, the first
// remaining template becomes active. Selection is cleared.
func (s *Store) DeleteTemplate(id string) bool {
	s.lock()
	defer s.unlock()

	i, t := s.find(id)
	if t == nil || len(s.templates) <= 1 {
		return false
	}
	s.templates = append(s.templates[:i:i], s.templates[i+1:]...)

	activeChanged := s.activeID == id
	if activeChanged {
		s.activeID = s.templates[0].ID
	}
	s.selected = ""

	s.save(context.Background())
	if s.pub != nil {
		s.pub.Delete(id)
		if activeChanged {
			s.pub.SetActive(s.activeID)
		}
	}
	s.record(OpDeleteTemplate, id, "")
	return true
}

// SetDefaultTemplate marks id as the only default template.
func (s *Store) SetDefaultTemplate(id string) bool {
	s.lock()
	defer s.unlock()

	if _, t := s.find(id); t == nil {
		return false
	}
	var changed []*template.Template
	for _, t := range s.templates {
		want := t.ID == id
		if t.IsDefault != want {
			t.IsDefault = want
			t.UpdatedAt = s.stamp()
			changed = append(changed, t)
		}
	}
	if len(changed) == 0 {
		return true
	}

	s.save(context.Background())
	if s.pub != nil {
		for _, t := range changed {
			s.pub.Upsert(t.Clone())
		}
	}
	s.record(OpSetDefault, id, "")
	return true
}

// SetActiveTemplate switches the active template and clears the selection.
func (s *Store) SetActiveTemplate(id string) bool {
	s.lock()
	defer s.unlock()

	if _, t := s.find(id); t == nil {
		return false
	}
	if s.activeID == id {
		return true
	}
	s.activeID = id
	s.selected = ""

	s.save(context.Background())
	if s.pub != nil {
		s.pub.SetActive(id)
	}
	s.record(OpSetActive, id, "")
	return true
}

// RenameTemplate renames a template. Blank names are ignored.
func (s *Store) RenameTemplate(id, name string) bool {
	s.lock()
	defer s.unlock()

	_, t := s.find(id)
	name = strings.TrimSpace(name)
	if t == nil || name == "" {
		return false
	}
	t.Name = name
	s.commit(OpUpdateTemplate, t, "")
	return true
}

// MarginsPatch updates individual page margins. Nil sides are kept.
type MarginsPatch struct {
	Top    *int `json:"top,omitempty"`
	Right  *int `json:"right,omitempty"`
	Bottom *int `json:"bottom,omitempty"`
	Left   *int `json:"left,omitempty"`
}

// PageSettingsPatch is a partial update of page settings.
type PageSettingsPatch struct {
	Size        *string       `json:"size,omitempty"`
	Orientation *string       `json:"orientation,omitempty"`
	Margins     *MarginsPatch `json:"margins,omitempty"`
}

func (p PageSettingsPatch) valid() bool {
	if p.Orientation != nil && *p.Orientation != template.OrientationPortrait && *p.Orientation != template.OrientationLandscape {
		return false
	}
	if p.Size != nil && strings.TrimSpace(*p.Size) == "" {
		return false
	}
	if m := p.Margins; m != nil {
		for _, v := range []*int{m.Top, m.Right, m.Bottom, m.Left} {
			if v != nil && *v < 0 {
				return false
			}
		}
	}
	return true
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// UpdatePageSettings merges patch into the active template's page settings.
// Patches with an unknown orientation, blank size or negative margin are
// ignored.
func (s *Store) UpdatePageSettings(patch PageSettingsPatch) bool {
	s.lock()
	defer s.unlock()

	t := s.active()
	if t == nil || !patch.valid() {
		return false
	}
	ps := &t.PageSettings
	setIf(&ps.Size, patch.Size)
	setIf(&ps.Orientation, patch.Orientation)
	if m := patch.Margins; m != nil {
		setIf(&ps.Margins.Top, m.Top)
		setIf(&ps.Margins.Right, m.Right)
		setIf(&ps.Margins.Bottom, m.Bottom)
		setIf(&ps.Margins.Left, m.Left)
	}
	s.commit(OpUpdatePage, t, "")
	return true
}

// UpdateStyles shallow-merges partial into the active template's styles.
func (s *Store) UpdateStyles(partial map[string]any) bool {
	s.lock()
	defer s.unlock()

	t := s.active()
	if t == nil || len(partial) == 0 {
		return false
	}
	t.Styles = t.Styles.Merge(partial)
	s.commit(OpUpdateStyles, t, "")
	return true
}

// ResetTemplate replaces a template's page settings, styles and layout with
// the built-in blank template. Id, name, default flag and creation time are
// kept.
func (s *Store) ResetTemplate(id string) bool {
	s.lock()
	defer s.unlock()

	_, t := s.find(id)
	if t == nil {
		return false
	}
	blank := preset.Blank().Fork(t.Name, s.stamp())
	t.PageSettings = blank.PageSettings
	t.Styles = blank.Styles
	t.Layout = blank.Layout
	if t.ID == s.activeID {
		s.selected = ""
	}
	s.commit(OpResetTemplate, t, "")
	return true
}
