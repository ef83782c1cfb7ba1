package designer

import (
	"context"
	"io"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/preset"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// ExportTemplate writes a standalone JSON document of a template to w.
func (s *Store) ExportTemplate(id string, w io.Writer) error {
	t, ok := s.Template(id)
	if !ok {
		return errors.New(errors.ErrCodeTemplateNotFound, "template %q not found", id)
	}
	return template.WriteJSON(t, w)
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	OK       bool               `json:"success"`
	Template *template.Template `json:"template,omitempty"`
	Reason   string             `json:"error,omitempty"`
}

// ImportTemplate reads an exported template document and adds it as a new,
// active, non-default template named "<name> (Imported)" with fresh ids and
// timestamps. A malformed document leaves the store unchanged and is
// reported through the result, not an error.
func (s *Store) ImportTemplate(r io.Reader) ImportResult {
	doc, err := template.ReadJSON(r)
	if err != nil {
		return ImportResult{Reason: errors.UserMessage(err)}
	}

	name := doc.Name
	if name == "" {
		name = template.DefaultName
	}
	if doc.PageSettings == (template.PageSettings{}) {
		doc.PageSettings = preset.DefaultPageSettings()
	}
	if doc.Styles == nil {
		doc.Styles = preset.DefaultStyles()
	}
	for i := range doc.Layout {
		if doc.Layout[i].Config == nil {
			doc.Layout[i].Config = template.Config{}
		}
	}

	s.lock()
	defer s.unlock()

	t := doc.Fork(name+template.ImportSuffix, s.stamp())
	s.templates = append(s.templates, t)
	s.activeID = t.ID
	s.selected = ""

	s.save(context.Background())
	if s.pub != nil {
		s.pub.Upsert(t.Clone())
		s.pub.SetActive(t.ID)
	}
	s.record(OpImportTemplate, t.ID, "")
	return ImportResult{OK: true, Template: t.Clone()}
}
