package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/dragdrop"
	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/form"
	"github.com/matzehuels/docdesigner/pkg/layout"
	"github.com/matzehuels/docdesigner/pkg/preview"
	"github.com/matzehuels/docdesigner/pkg/template"
)

type cellView struct {
	Index  int             `json:"index"`
	Module template.Module `json:"module"`
}

type rowView struct {
	Percent float64    `json:"percent"`
	Cells   []cellView `json:"cells"`
}

func rowViews(rows []layout.Row) []rowView {
	out := make([]rowView, 0, len(rows))
	for _, r := range rows {
		v := rowView{Percent: r.Percent()}
		for _, c := range r.Cells {
			v.Cells = append(v.Cells, cellView{Index: c.Index, Module: c.Module})
		}
		out = append(out, v)
	}
	return out
}

func (s *Server) getActive(w http.ResponseWriter, r *http.Request) {
	t := s.store.ActiveTemplate()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"template": t,
		"selected": s.store.Selected(),
		"rows":     rowViews(layout.Pack(t.Layout)),
	})
}

func (s *Server) getRows(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, rowViews(s.store.Rows()))
}

func (s *Server) getPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dot := preview.ToDOT(s.store.ActiveTemplate(), s.store.Registry(), preview.Options{
		Detailed: q.Has("detailed"),
		Selected: s.store.Selected(),
	})
	switch q.Get("format") {
	case "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(dot))
	case "", "svg":
		svg, err := preview.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "render preview"))
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(svg)
	default:
		s.fail(w, errors.ErrCodeUnsupported, "unsupported preview format %q (want svg or dot)", q.Get("format"))
	}
}

func (s *Server) updatePage(w http.ResponseWriter, r *http.Request) {
	var patch designer.PageSettingsPatch
	if err := decode(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	if !s.store.UpdatePageSettings(patch) {
		s.fail(w, errors.ErrCodeInvalidInput, "invalid page settings")
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.ActiveTemplate().PageSettings)
}

func (s *Server) updateStyles(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := decode(r, &partial); err != nil {
		s.writeError(w, err)
		return
	}
	if !s.store.UpdateStyles(normalizeMap(partial)) {
		s.fail(w, errors.ErrCodeInvalidInput, "styles patch is empty")
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.ActiveTemplate().Styles)
}

func (s *Server) selectModule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModuleID string `json:"moduleId"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if !s.store.SelectModule(req.ModuleID) {
		s.fail(w, errors.ErrCodeModuleNotFound, "module %q not found", req.ModuleID)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"selected": s.store.Selected()})
}

func (s *Server) reorderModules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	moved := s.store.ReorderModules(req.From, req.To)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"moved":  moved,
		"layout": s.store.ActiveTemplate().Layout,
	})
}

func (s *Server) dropModule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind      string `json:"kind"`
		FromIndex *int   `json:"fromIndex"`
		Zone      int    `json:"zone"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var src dragdrop.Source
	switch {
	case req.Kind != "":
		if _, ok := s.store.Registry().Lookup(req.Kind); !ok {
			s.fail(w, errors.ErrCodeUnknownKind, "unknown module kind %q", req.Kind)
			return
		}
		src = dragdrop.NewModule(req.Kind)
	case req.FromIndex != nil:
		src = dragdrop.Existing(*req.FromIndex)
	default:
		s.fail(w, errors.ErrCodeInvalidInput, "drop needs kind or fromIndex")
		return
	}
	s.writeJSON(w, http.StatusOK, dragdrop.Apply(s.store, src, req.Zone))
}

func (s *Server) addModule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind  string `json:"kind"`
		Index *int   `json:"index"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, ok := s.store.Registry().Lookup(req.Kind); !ok {
		s.fail(w, errors.ErrCodeUnknownKind, "unknown module kind %q", req.Kind)
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}
	m, ok := s.store.AddModule(req.Kind, index)
	if !ok {
		s.fail(w, errors.ErrCodeTemplateNotFound, "no active template")
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

// module resolves the {moduleID} parameter against the active template,
// writing a 404 when unknown.
func (s *Server) module(w http.ResponseWriter, r *http.Request) (template.Module, bool) {
	id := chi.URLParam(r, "moduleID")
	m, ok := s.store.Module(id)
	if !ok {
		s.fail(w, errors.ErrCodeModuleNotFound, "module %q not found", id)
	}
	return m, ok
}

func (s *Server) writeModule(w http.ResponseWriter, status int, id string) {
	m, ok := s.store.Module(id)
	if !ok {
		s.fail(w, errors.ErrCodeModuleNotFound, "module %q not found", id)
		return
	}
	s.writeJSON(w, status, m)
}

func (s *Server) removeModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	if !s.store.RemoveModule(m.ID) {
		s.fail(w, errors.ErrCodeModuleNotFound, "module %q not found", m.ID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateModuleConfig(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	var partial map[string]any
	if err := decode(r, &partial); err != nil {
		s.writeError(w, err)
		return
	}
	f, err := form.New(s.store.Registry(), m, s.store)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := f.SetAll(partial); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeModule(w, http.StatusOK, m.ID)
}

func (s *Server) updateModuleWidth(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	var req struct {
		Width template.Width `json:"width"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if !req.Width.Valid() {
		s.fail(w, errors.ErrCodeInvalidWidth, "invalid width %q (want one of %v)", req.Width, template.Widths)
		return
	}
	if !s.store.UpdateModuleWidth(m.ID, req.Width) {
		s.fail(w, errors.ErrCodeModuleNotFound, "module %q not found", m.ID)
		return
	}
	s.writeModule(w, http.StatusOK, m.ID)
}

func (s *Server) duplicateModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	c, ok := s.store.DuplicateModule(m.ID)
	if !ok {
		s.fail(w, errors.ErrCodeModuleNotFound, "module %q not found", m.ID)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) moveModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	var req struct {
		Direction designer.Direction `json:"direction"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Direction != designer.Up && req.Direction != designer.Down {
		s.fail(w, errors.ErrCodeInvalidInput, "direction must be %q or %q", designer.Up, designer.Down)
		return
	}
	moved := s.store.MoveModule(m.ID, req.Direction)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"moved":  moved,
		"layout": s.store.ActiveTemplate().Layout,
	})
}

func (s *Server) getForm(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	entries, err := form.Fields(s.store.Registry(), m)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) setFormField(w http.ResponseWriter, r *http.Request) {
	m, ok := s.module(w, r)
	if !ok {
		return
	}
	var req struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	f, err := form.New(s.store.Registry(), m, s.store)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if raw, isString := req.Value.(string); isString {
		err = f.SetInput(req.Key, raw)
	} else {
		err = f.Set(req.Key, req.Value)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f.Entries())
}

// normalizeMap turns json.Number values into ints or float64s so stored
// configs hold plain Go numbers.
func normalizeMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = normalize(v)
	}
	return m
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return int(i)
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		return normalizeMap(x)
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
		return x
	}
	return v
}
