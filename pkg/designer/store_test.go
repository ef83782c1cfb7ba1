package designer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/preset"
	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

type recordingPublisher struct {
	mu      sync.Mutex
	upserts []string
	deletes []string
	active  []string
}

func (p *recordingPublisher) Upsert(t *template.Template) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upserts = append(p.upserts, t.ID)
}

func (p *recordingPublisher) Delete(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes = append(p.deletes, id)
}

func (p *recordingPublisher) SetActive(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = append(p.active, id)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T, opts ...Option) (*Store, *persist.MemoryBackend) {
	t.Helper()
	b := persist.NewMemoryBackend()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithLogger(log.New(io.Discard)), WithClock(c.now)}, opts...)
	return Open(context.Background(), b, opts...), b
}

// blankActive creates and activates an empty template.
func blankActive(t *testing.T, s *Store) *template.Template {
	t.Helper()
	tpl := s.CreateTemplate("T1", "")
	if len(tpl.Layout) != 0 {
		t.Fatalf("blank template has %d modules", len(tpl.Layout))
	}
	return tpl
}

func types(s *Store) []string {
	var out []string
	for _, m := range s.ActiveTemplate().Layout {
		out = append(out, m.Type)
	}
	return out
}

func widthsOf(rows [][]template.Module) [][]template.Width {
	out := make([][]template.Width, len(rows))
	for i, r := range rows {
		for _, m := range r {
			out[i] = append(out[i], m.Width)
		}
	}
	return out
}

func TestOpenSeedsPresets(t *testing.T) {
	s, b := newStore(t)
	all := s.Templates()
	if len(all) != len(preset.IDs()) {
		t.Fatalf("templates = %d, want %d presets", len(all), len(preset.IDs()))
	}
	if s.ActiveID() != preset.DefaultID {
		t.Errorf("active = %q, want default", s.ActiveID())
	}
	if b.Saves() != 1 {
		t.Errorf("seeded snapshot should be written once, got %d saves", b.Saves())
	}
}

func TestOpenMergesNewPresetsWithoutClobbering(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	b := persist.NewMemoryBackend()
	_ = b.Save(ctx, &persist.Snapshot{
		Version:          preset.Version - 1,
		ActiveTemplateID: "mine",
		Templates: []*template.Template{
			{
				ID:           preset.DefaultID,
				Name:         "Edited default",
				PageSettings: template.PageSettings{Size: "Letter", Orientation: "landscape", Margins: template.Margins{Top: 5, Right: 6, Bottom: 7, Left: 8}},
				Styles:       template.Styles{"primaryColor": "#000000", "fontFamily": "Georgia"},
				Layout: []template.Module{
					{ID: "d1", Type: "lineItems", Width: template.WidthFull, Config: template.Config{"showTax": false}},
					{ID: "d2", Type: "totals", Width: template.WidthHalf, Config: template.Config{"taxLabel": "GST"}},
				},
				CreatedAt: created,
				UpdatedAt: created.Add(time.Hour),
			},
			{
				ID:        "mine",
				Name:      "Mine",
				Layout:    []template.Module{{ID: "m1", Type: "spacer", Width: template.WidthFull, Config: template.Config{"height": 40}}},
				Styles:    template.Styles{"accent": "#8B5CF6"},
				CreatedAt: created,
				UpdatedAt: created.Add(2 * time.Hour),
			},
		},
	})

	before := map[string][]byte{}
	loaded, _ := b.Load(ctx)
	for _, tpl := range loaded.Templates {
		data, err := json.Marshal(tpl)
		if err != nil {
			t.Fatal(err)
		}
		before[tpl.ID] = data
	}

	s := Open(ctx, b, WithLogger(log.New(io.Discard)))
	if s.ActiveID() != "mine" {
		t.Errorf("active = %q, want mine", s.ActiveID())
	}
	if got, want := len(s.Templates()), 2+len(preset.IDs())-1; got != want {
		t.Errorf("templates = %d, want %d", got, want)
	}

	snap, _ := b.Load(ctx)
	if snap.Version != preset.Version {
		t.Errorf("persisted version = %d", snap.Version)
	}
	for id, want := range before {
		tpl, ok := s.Template(id)
		if !ok {
			t.Fatalf("template %s lost", id)
		}
		if got, _ := json.Marshal(tpl); !bytes.Equal(got, want) {
			t.Errorf("template %s changed in memory:\n got %s\nwant %s", id, got, want)
		}
		saved, _ := snap.Find(id)
		if got, _ := json.Marshal(saved); !bytes.Equal(got, want) {
			t.Errorf("template %s changed on disk:\n got %s\nwant %s", id, got, want)
		}
	}
}

func TestOpenKeepsUnreadableSnapshot(t *testing.T) {
	ctx := context.Background()
	b, err := persist.NewFileBackend(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	// createdAt in epoch milliseconds does not decode as a timestamp.
	original := []byte(`{"templates":[{"id":"mine","name":"My invoice","layout":[],"createdAt":1700000000000}],"activeTemplateId":"mine","version":4}`)
	if err := os.WriteFile(b.Path(), original, 0600); err != nil {
		t.Fatal(err)
	}

	s := Open(ctx, b, WithLogger(log.New(io.Discard)))
	if _, ok := s.Template("mine"); ok {
		t.Error("unreadable template should not be loaded")
	}
	if s.ActiveID() != preset.DefaultID {
		t.Errorf("active = %q, want default", s.ActiveID())
	}

	moved, _ := filepath.Glob(b.Path() + ".corrupt-*")
	if len(moved) != 1 {
		t.Fatalf("quarantined files = %v", moved)
	}
	if data, _ := os.ReadFile(moved[0]); !bytes.Equal(data, original) {
		t.Errorf("quarantined snapshot = %s", data)
	}
	if snap, err := b.Load(ctx); err != nil || snap == nil || len(snap.Templates) != len(preset.IDs()) {
		t.Errorf("fresh snapshot = %v, %v", snap, err)
	}
}

// Build a layout from the blank template and watch the rows form.
func TestRowsFollowAddedModules(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)

	rows := func() [][]template.Module {
		var out [][]template.Module
		for _, r := range s.Rows() {
			out = append(out, r.Modules())
		}
		return out
	}

	full, _ := s.AddModule("lineItems", -1)
	half, _ := s.AddModule("totals", -1)
	if full.Width != template.WidthFull || half.Width != template.WidthHalf {
		t.Fatalf("default widths = %s, %s", full.Width, half.Width)
	}

	r := rows()
	if len(r) != 2 || r[0][0].ID != full.ID || r[1][0].ID != half.ID {
		t.Fatalf("rows = %v", widthsOf(r))
	}

	half2, _ := s.AddModule("bankDetails", -1)
	r = rows()
	if len(r) != 2 || len(r[1]) != 2 || r[1][1].ID != half2.ID {
		t.Fatalf("second half should share row 2: %v", widthsOf(r))
	}

	half3, _ := s.AddModule("paymentTerms", -1)
	r = rows()
	if len(r) != 3 || len(r[1]) != 2 || len(r[2]) != 1 || r[2][0].ID != half3.ID {
		t.Fatalf("third half should open row 3: %v", widthsOf(r))
	}
}

func TestDeleteTemplateGuardsAndFallback(t *testing.T) {
	s, b := newStore(t)
	first := s.Templates()[0].ID
	created := s.CreateTemplate("Doomed", "")

	if s.ActiveID() != created.ID {
		t.Fatal("created template should be active")
	}
	if !s.DeleteTemplate(created.ID) {
		t.Fatal("DeleteTemplate returned false")
	}
	if s.ActiveID() != first {
		t.Errorf("active = %q, want first remaining %q", s.ActiveID(), first)
	}

	for _, tpl := range s.Templates()[1:] {
		s.DeleteTemplate(tpl.ID)
	}
	if n := len(s.Templates()); n != 1 {
		t.Fatalf("templates = %d, want 1", n)
	}

	saves := b.Saves()
	if s.DeleteTemplate(first) {
		t.Error("deleting the last template should be refused")
	}
	if len(s.Templates()) != 1 || b.Saves() != saves {
		t.Error("refused delete changed state")
	}
	if s.DeleteTemplate("nope") {
		t.Error("deleting an unknown template should be a no-op")
	}
}

func TestCreateAndDuplicateTemplate(t *testing.T) {
	s, _ := newStore(t)
	src, _ := s.Template(preset.ID("modern"))

	dup, ok := s.DuplicateTemplate(src.ID)
	if !ok {
		t.Fatal("DuplicateTemplate failed")
	}
	if dup.Name != src.Name+CopySuffix || dup.ID == src.ID || dup.IsDefault {
		t.Errorf("dup = %q id=%q default=%v", dup.Name, dup.ID, dup.IsDefault)
	}
	if len(dup.Layout) != len(src.Layout) {
		t.Fatalf("layout len = %d, want %d", len(dup.Layout), len(src.Layout))
	}
	for i := range dup.Layout {
		if dup.Layout[i].ID == src.Layout[i].ID {
			t.Errorf("module %d shares id with source", i)
		}
	}

	// Editing the copy leaves the source alone.
	s.UpdateModuleConfig(dup.Layout[0].ID, map[string]any{"title": "COPY"})
	after, _ := s.Template(src.ID)
	if _, ok := after.Layout[0].Config["title"]; ok && after.Layout[0].Config["title"] == "COPY" {
		t.Error("source template changed through its copy")
	}

	if _, ok := s.DuplicateTemplate("missing"); ok {
		t.Error("duplicating a missing template should fail")
	}

	unnamed := s.CreateTemplate("  ", "missing")
	if unnamed.Name != template.DefaultName || len(unnamed.Layout) != 0 {
		t.Errorf("fallback create = %q with %d modules", unnamed.Name, len(unnamed.Layout))
	}
}

func TestSetDefaultTemplate(t *testing.T) {
	s, _ := newStore(t)
	target := preset.ID("minimal")
	if !s.SetDefaultTemplate(target) {
		t.Fatal("SetDefaultTemplate failed")
	}
	n := 0
	for _, tpl := range s.Templates() {
		if tpl.IsDefault {
			n++
			if tpl.ID != target {
				t.Errorf("%s still default", tpl.ID)
			}
		}
	}
	if n != 1 {
		t.Errorf("%d default templates, want 1", n)
	}
	if s.SetDefaultTemplate("missing") {
		t.Error("unknown id should be a no-op")
	}
}

func TestAddModule(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)

	a, _ := s.AddModule("spacer", -1)
	b, _ := s.AddModule("divider", 0)
	c, _ := s.AddModule("footer", 99)
	if got := types(s); strings.Join(got, ",") != "divider,spacer,footer" {
		t.Errorf("layout = %v", got)
	}
	if s.Selected() != c.ID {
		t.Error("new module should be selected")
	}
	if a.Config["height"] != 20 || b.Config["style"] != "solid" {
		t.Errorf("defaults not materialised: %v %v", a.Config, b.Config)
	}

	before := s.ActiveTemplate()
	if _, ok := s.AddModule("hologram", 0); ok {
		t.Error("unknown kind should be ignored")
	}
	if after := s.ActiveTemplate(); len(after.Layout) != len(before.Layout) || !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("unknown kind changed the template")
	}
}

func TestRemoveModuleClearsSelection(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)
	a, _ := s.AddModule("spacer", -1)
	b, _ := s.AddModule("footer", -1)

	s.SelectModule(a.ID)
	s.RemoveModule(b.ID)
	if s.Selected() != a.ID {
		t.Error("removing another module cleared the selection")
	}
	s.RemoveModule(a.ID)
	if s.Selected() != "" {
		t.Error("removing the selected module should clear selection")
	}
	if s.RemoveModule(a.ID) {
		t.Error("stale id should be a no-op")
	}
}

func TestUpdateModuleConfigIsSparseMerge(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)
	m, _ := s.AddModule("invoiceHeader", -1)

	s.UpdateModuleConfig(m.ID, map[string]any{"title": "QUOTE"})
	got, _ := s.Module(m.ID)

	k, _ := registry.Default().Lookup("invoiceHeader")
	eff := k.Effective(got.Config)
	if eff["title"] != "QUOTE" {
		t.Errorf("title = %v", eff["title"])
	}
	for _, f := range k.Fields {
		if f.Key != "title" && eff[f.Key] != f.Default {
			t.Errorf("%s = %v, want default %v", f.Key, eff[f.Key], f.Default)
		}
	}

	if s.UpdateModuleConfig("missing", map[string]any{"x": 1}) {
		t.Error("unknown module should be a no-op")
	}
}

func TestUpdateModuleWidth(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)
	m, _ := s.AddModule("totals", -1)

	if !s.UpdateModuleWidth(m.ID, template.WidthThird) {
		t.Fatal("UpdateModuleWidth failed")
	}
	if got, _ := s.Module(m.ID); got.Width != template.WidthThird {
		t.Errorf("width = %s", got.Width)
	}
	if s.UpdateModuleWidth(m.ID, "huge") {
		t.Error("invalid width should be rejected")
	}
}

func TestDuplicateModule(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)
	a, _ := s.AddModule("customText", -1)
	s.AddModule("footer", -1)
	s.UpdateModuleConfig(a.ID, map[string]any{"text": "hello"})

	c, ok := s.DuplicateModule(a.ID)
	if !ok {
		t.Fatal("DuplicateModule failed")
	}
	layout := s.ActiveTemplate().Layout
	if layout[1].ID != c.ID || c.ID == a.ID {
		t.Errorf("copy not inserted after original: %v", types(s))
	}
	if c.Config["text"] != "hello" || s.Selected() != c.ID {
		t.Errorf("copy config=%v selected=%v", c.Config, s.Selected())
	}

	s.UpdateModuleConfig(c.ID, map[string]any{"text": "changed"})
	if orig, _ := s.Module(a.ID); orig.Config["text"] != "hello" {
		t.Error("copy shares config with original")
	}
}

func TestReorderModules(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     string
		ok       bool
	}{
		{"front to third", 0, 2, "B,C,A,D", true},
		{"back to front", 3, 0, "D,A,B,C", true},
		{"adjacent down", 1, 2, "A,C,B,D", true},
		{"to past end appends", 0, 10, "B,C,D,A", true},
		{"self", 2, 2, "A,B,C,D", false},
		{"bad from", 7, 0, "A,B,C,D", false},
		{"negative to", 1, -1, "A,B,C,D", false},
	}
	kinds := map[string]string{"spacer": "A", "divider": "B", "footer": "C", "image": "D"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t)
			blankActive(t, s)
			for _, k := range []string{"spacer", "divider", "footer", "image"} {
				s.AddModule(k, -1)
			}
			if ok := s.ReorderModules(tt.from, tt.to); ok != tt.ok {
				t.Errorf("ReorderModules ok = %v, want %v", ok, tt.ok)
			}
			var got []string
			for _, k := range types(s) {
				got = append(got, kinds[k])
			}
			if strings.Join(got, ",") != tt.want {
				t.Errorf("layout = %v, want %s", got, tt.want)
			}
		})
	}
}

func TestMoveModuleBoundaries(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)
	a, _ := s.AddModule("spacer", -1)
	b, _ := s.AddModule("footer", -1)

	if s.MoveModule(a.ID, Up) || s.MoveModule(b.ID, Down) {
		t.Error("moves past the ends should be no-ops")
	}
	if !s.MoveModule(a.ID, Down) {
		t.Fatal("MoveModule down failed")
	}
	if got := types(s); got[0] != "footer" {
		t.Errorf("layout = %v", got)
	}
	if s.MoveModule(a.ID, "sideways") {
		t.Error("unknown direction should be ignored")
	}
}

func TestSelectModule(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)
	a, _ := s.AddModule("spacer", -1)

	if !s.SelectModule("") || s.Selected() != "" {
		t.Error("clearing selection failed")
	}
	if s.SelectModule("missing") {
		t.Error("selecting an unknown module should fail")
	}
	if !s.SelectModule(a.ID) || s.Selected() != a.ID {
		t.Error("select failed")
	}

	other := s.CreateTemplate("Other", "")
	if s.Selected() != "" {
		t.Error("switching template should clear selection")
	}
	s.SetActiveTemplate(other.ID)
}

func TestStructuralMutationsStampAndPersist(t *testing.T) {
	s, b := newStore(t)
	blankActive(t, s)
	before := s.ActiveTemplate().UpdatedAt
	saves := b.Saves()

	m, _ := s.AddModule("spacer", -1)
	if !s.ActiveTemplate().UpdatedAt.After(before) {
		t.Error("AddModule did not stamp updatedAt")
	}
	if b.Saves() != saves+1 {
		t.Errorf("saves = %d, want %d", b.Saves(), saves+1)
	}

	saves = b.Saves()
	s.SelectModule("")
	s.SelectModule(m.ID)
	if b.Saves() != saves {
		t.Error("selection should not persist")
	}

	// A fresh store over the same backend sees the change.
	reopened := Open(context.Background(), b, WithLogger(log.New(io.Discard)))
	if _, ok := reopened.Module(m.ID); !ok {
		t.Error("module not persisted")
	}
}

func TestPageSettingsAndStyles(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)

	land := template.OrientationLandscape
	top := 12
	if !s.UpdatePageSettings(PageSettingsPatch{Orientation: &land, Margins: &MarginsPatch{Top: &top}}) {
		t.Fatal("UpdatePageSettings failed")
	}
	ps := s.ActiveTemplate().PageSettings
	if ps.Orientation != land || ps.Margins.Top != 12 || ps.Margins.Left != preset.PageMargin || ps.Size != preset.PageSize {
		t.Errorf("page settings = %+v", ps)
	}

	bad := "diagonal"
	if s.UpdatePageSettings(PageSettingsPatch{Orientation: &bad}) {
		t.Error("unknown orientation accepted")
	}

	if !s.UpdateStyles(map[string]any{"primaryColor": "#000000"}) {
		t.Fatal("UpdateStyles failed")
	}
	st := s.ActiveTemplate().Styles
	if st["primaryColor"] != "#000000" || st["fontFamily"] != preset.FontFamily {
		t.Errorf("styles = %v", st)
	}
}

func TestResetTemplate(t *testing.T) {
	s, _ := newStore(t)
	id := preset.DefaultID
	s.SetActiveTemplate(id)
	orig, _ := s.Template(id)
	s.RenameTemplate(id, "Renamed")

	if !s.ResetTemplate(id) {
		t.Fatal("ResetTemplate failed")
	}
	got, _ := s.Template(id)
	if got.ID != id || got.Name != "Renamed" || !got.IsDefault || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("identity not kept: %+v", got)
	}
	if len(got.Layout) != 0 {
		t.Errorf("layout = %d modules, want blank", len(got.Layout))
	}
}

func TestExportImport(t *testing.T) {
	s, _ := newStore(t)
	src := s.ActiveTemplate()

	var buf bytes.Buffer
	if err := s.ExportTemplate(src.ID, &buf); err != nil {
		t.Fatalf("ExportTemplate: %v", err)
	}

	res := s.ImportTemplate(&buf)
	if !res.OK {
		t.Fatalf("import failed: %s", res.Reason)
	}
	imp := res.Template
	if imp.Name != src.Name+template.ImportSuffix || imp.IsDefault || imp.ID == src.ID {
		t.Errorf("imported = %q default=%v id=%q", imp.Name, imp.IsDefault, imp.ID)
	}
	if s.ActiveID() != imp.ID {
		t.Error("import should become active")
	}
	for i := range imp.Layout {
		if imp.Layout[i].ID == src.Layout[i].ID {
			t.Errorf("module %d kept source id", i)
		}
	}

	count := len(s.Templates())
	bad := s.ImportTemplate(strings.NewReader(`{"name":"x","layout":"nope"}`))
	if bad.OK || bad.Reason == "" {
		t.Errorf("malformed import result = %+v", bad)
	}
	if len(s.Templates()) != count || s.ActiveID() != imp.ID {
		t.Error("failed import changed state")
	}

	if err := s.ExportTemplate("missing", io.Discard); err == nil {
		t.Error("exporting a missing template should fail")
	}
}

func TestSubscribeAndPublish(t *testing.T) {
	pub := &recordingPublisher{}
	s, _ := newStore(t, WithPublisher(pub))

	var events []Event
	cancel := s.Subscribe(func(ev Event) {
		// Subscribers may read back from the store.
		_ = s.ActiveID()
		events = append(events, ev)
	})

	tpl := s.CreateTemplate("Events", "")
	m, _ := s.AddModule("spacer", -1)
	s.SelectModule("")
	s.DeleteTemplate(tpl.ID)
	cancel()
	s.SetActiveTemplate(preset.ID("modern"))

	want := []Op{OpCreateTemplate, OpAddModule, OpSelectModule, OpDeleteTemplate}
	if len(events) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for i, op := range want {
		if events[i].Op != op {
			t.Errorf("event %d = %s, want %s", i, events[i].Op, op)
		}
	}
	if events[1].ModuleID != m.ID {
		t.Errorf("addModule event module = %q", events[1].ModuleID)
	}

	if len(pub.upserts) != 2 || len(pub.deletes) != 1 || pub.deletes[0] != tpl.ID {
		t.Errorf("publisher = %+v", pub)
	}
	// create, delete fallback, explicit switch
	if len(pub.active) != 3 {
		t.Errorf("active publishes = %v", pub.active)
	}
}

func TestConcurrentMutations(t *testing.T) {
	s, _ := newStore(t)
	blankActive(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, ok := s.AddModule("spacer", 0)
			if ok {
				s.UpdateModuleConfig(m.ID, map[string]any{"height": 30})
				s.MoveModule(m.ID, Down)
			}
			_ = s.Rows()
		}()
	}
	wg.Wait()

	if n := len(s.ActiveTemplate().Layout); n != 20 {
		t.Errorf("layout = %d modules, want 20", n)
	}
}
