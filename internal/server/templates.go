package server

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/template"
)

type templateSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	Active    bool   `json:"active"`
	Modules   int    `json:"modules"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"templates": len(s.store.Templates()),
	})
}

func (s *Server) listKinds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Registry().Kinds())
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	active := s.store.ActiveID()
	var out []templateSummary
	for _, t := range s.store.Templates() {
		out = append(out, templateSummary{
			ID:        t.ID,
			Name:      t.Name,
			IsDefault: t.IsDefault,
			Active:    t.ID == active,
			Modules:   len(t.Layout),
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// lookup resolves the {templateID} parameter, writing a 404 when unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*template.Template, bool) {
	id := chi.URLParam(r, "templateID")
	t, ok := s.store.Template(id)
	if !ok {
		s.fail(w, errors.ErrCodeTemplateNotFound, "template %q not found", id)
	}
	return t, ok
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	if t, ok := s.lookup(w, r); ok {
		s.writeJSON(w, http.StatusOK, t)
	}
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		CopyFrom string `json:"copyFrom"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := errors.ValidateTemplateName(req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.store.CreateTemplate(req.Name, req.CopyFrom))
}

func (s *Server) renameTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := errors.ValidateTemplateName(req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	if !s.store.RenameTemplate(t.ID, req.Name) {
		s.fail(w, errors.ErrCodeInvalidInput, "template name cannot be blank")
		return
	}
	t, _ = s.store.Template(t.ID)
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !s.store.DeleteTemplate(t.ID) {
		s.writeJSON(w, http.StatusConflict, errorBody{
			Code:    errors.ErrCodeInvalidInput,
			Message: "cannot delete the only template",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) duplicateTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	dup, ok := s.store.DuplicateTemplate(t.ID)
	if !ok {
		s.fail(w, errors.ErrCodeTemplateNotFound, "template %q not found", t.ID)
		return
	}
	s.writeJSON(w, http.StatusCreated, dup)
}

func (s *Server) setDefaultTemplate(w http.ResponseWriter, r *http.Request) {
	s.templateAction(w, r, s.store.SetDefaultTemplate)
}

func (s *Server) activateTemplate(w http.ResponseWriter, r *http.Request) {
	s.templateAction(w, r, s.store.SetActiveTemplate)
}

func (s *Server) resetTemplate(w http.ResponseWriter, r *http.Request) {
	s.templateAction(w, r, s.store.ResetTemplate)
}

// templateAction runs an id-only store operation and answers with the
// updated template.
func (s *Server) templateAction(w http.ResponseWriter, r *http.Request, op func(string) bool) {
	id := chi.URLParam(r, "templateID")
	if !op(id) {
		s.fail(w, errors.ErrCodeTemplateNotFound, "template %q not found", id)
		return
	}
	t, _ := s.store.Template(id)
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) exportTemplate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.store.ExportTemplate(t.ID, &buf); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+template.ExportFilename(t)+`"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) importTemplate(w http.ResponseWriter, r *http.Request) {
	res := s.store.ImportTemplate(http.MaxBytesReader(w, r.Body, maxBody))
	if !res.OK {
		s.writeJSON(w, http.StatusBadRequest, res)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}
