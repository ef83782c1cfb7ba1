package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docdesigner/pkg/designer"
	"github.com/matzehuels/docdesigner/pkg/dragdrop"
	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/form"
	"github.com/matzehuels/docdesigner/pkg/persist"
	"github.com/matzehuels/docdesigner/pkg/preset"
	"github.com/matzehuels/docdesigner/pkg/template"
)

func newTestServer(t *testing.T) (*httptest.Server, *designer.Store) {
	t.Helper()
	quiet := log.New(io.Discard)
	store := designer.Open(context.Background(), persist.NewMemoryBackend(), designer.WithLogger(quiet))
	ts := httptest.NewServer(New(store, WithLogger(quiet)).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: status = %d, want %d: %s", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, b)
	}
}

func TestHealthAndRegistry(t *testing.T) {
	ts, _ := newTestServer(t)
	expectStatus(t, do(t, ts, "GET", "/healthz", ""), http.StatusOK)

	resp := do(t, ts, "GET", "/registry", "")
	expectStatus(t, resp, http.StatusOK)
	kinds := decodeBody[[]map[string]any](t, resp)
	if len(kinds) != 15 {
		t.Errorf("kinds = %d", len(kinds))
	}
}

func TestTemplateLifecycle(t *testing.T) {
	ts, store := newTestServer(t)

	resp := do(t, ts, "GET", "/templates", "")
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[[]templateSummary](t, resp); len(got) != len(preset.IDs()) {
		t.Fatalf("templates = %d", len(got))
	}

	resp = do(t, ts, "POST", "/templates", `{"name":"Acme","copyFrom":"`+preset.ID("modern")+`"}`)
	expectStatus(t, resp, http.StatusCreated)
	created := decodeBody[template.Template](t, resp)
	if created.Name != "Acme" || store.ActiveID() != created.ID {
		t.Errorf("created = %q active = %q", created.Name, store.ActiveID())
	}

	resp = do(t, ts, "PATCH", "/templates/"+created.ID, `{"name":"Acme Ltd"}`)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[template.Template](t, resp); got.Name != "Acme Ltd" {
		t.Errorf("renamed = %q", got.Name)
	}

	expectStatus(t, do(t, ts, "POST", "/templates/"+created.ID+"/default", ""), http.StatusOK)
	expectStatus(t, do(t, ts, "POST", "/templates/"+created.ID+"/duplicate", ""), http.StatusCreated)
	expectStatus(t, do(t, ts, "POST", "/templates/"+created.ID+"/activate", ""), http.StatusOK)
	expectStatus(t, do(t, ts, "POST", "/templates/"+created.ID+"/reset", ""), http.StatusOK)
	expectStatus(t, do(t, ts, "DELETE", "/templates/"+created.ID, ""), http.StatusNoContent)

	resp = do(t, ts, "GET", "/templates/"+created.ID, "")
	expectStatus(t, resp, http.StatusNotFound)
	if body := decodeBody[errorBody](t, resp); body.Code != errors.ErrCodeTemplateNotFound {
		t.Errorf("error code = %s", body.Code)
	}
}

func TestDeleteLastTemplateConflict(t *testing.T) {
	ts, store := newTestServer(t)
	for _, tpl := range store.Templates()[1:] {
		store.DeleteTemplate(tpl.ID)
	}
	last := store.Templates()[0].ID
	expectStatus(t, do(t, ts, "DELETE", "/templates/"+last, ""), http.StatusConflict)
	if len(store.Templates()) != 1 || store.ActiveID() != last {
		t.Error("last template was removed")
	}
}

func TestExportImport(t *testing.T) {
	ts, store := newTestServer(t)
	id := store.ActiveID()

	resp := do(t, ts, "GET", "/templates/"+id+"/export", "")
	expectStatus(t, resp, http.StatusOK)
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "invoice-template-standard.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)

	resp = do(t, ts, "POST", "/templates/import", string(body))
	expectStatus(t, resp, http.StatusCreated)
	res := decodeBody[designer.ImportResult](t, resp)
	if !res.OK || !strings.HasSuffix(res.Template.Name, template.ImportSuffix) {
		t.Errorf("import = %+v", res)
	}

	resp = do(t, ts, "POST", "/templates/import", `{"name":"broken"}`)
	expectStatus(t, resp, http.StatusBadRequest)
	if res := decodeBody[designer.ImportResult](t, resp); res.OK || res.Reason == "" {
		t.Errorf("bad import = %+v", res)
	}
}

func TestModuleEndpoints(t *testing.T) {
	ts, store := newTestServer(t)
	store.CreateTemplate("API", "")

	resp := do(t, ts, "POST", "/active/modules", `{"kind":"lineItems"}`)
	expectStatus(t, resp, http.StatusCreated)
	items := decodeBody[template.Module](t, resp)

	resp = do(t, ts, "POST", "/active/modules", `{"kind":"totals","index":0}`)
	expectStatus(t, resp, http.StatusCreated)
	totals := decodeBody[template.Module](t, resp)
	if store.ActiveTemplate().Layout[0].ID != totals.ID {
		t.Error("index not honoured")
	}

	expectStatus(t, do(t, ts, "POST", "/active/modules", `{"kind":"hologram"}`), http.StatusBadRequest)

	resp = do(t, ts, "PATCH", "/active/modules/"+totals.ID+"/config", `{"taxLabel":"GST"}`)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[template.Module](t, resp); got.Config["taxLabel"] != "GST" {
		t.Errorf("config = %v", got.Config)
	}

	expectStatus(t, do(t, ts, "PUT", "/active/modules/"+totals.ID+"/width", `{"width":"huge"}`), http.StatusBadRequest)
	expectStatus(t, do(t, ts, "PUT", "/active/modules/"+totals.ID+"/width", `{"width":"third"}`), http.StatusOK)

	resp = do(t, ts, "POST", "/active/modules/"+totals.ID+"/move", `{"direction":"down"}`)
	expectStatus(t, resp, http.StatusOK)
	if store.ActiveTemplate().Layout[1].ID != totals.ID {
		t.Error("move down not applied")
	}
	expectStatus(t, do(t, ts, "POST", "/active/modules/"+totals.ID+"/move", `{"direction":"left"}`), http.StatusBadRequest)

	expectStatus(t, do(t, ts, "POST", "/active/modules/"+items.ID+"/duplicate", ""), http.StatusCreated)
	expectStatus(t, do(t, ts, "PUT", "/active/selection", `{"moduleId":"`+items.ID+`"}`), http.StatusOK)
	if store.Selected() != items.ID {
		t.Error("selection not applied")
	}

	expectStatus(t, do(t, ts, "DELETE", "/active/modules/"+items.ID, ""), http.StatusNoContent)
	resp = do(t, ts, "DELETE", "/active/modules/"+items.ID, "")
	expectStatus(t, resp, http.StatusNotFound)
	if body := decodeBody[errorBody](t, resp); body.Code != errors.ErrCodeModuleNotFound {
		t.Errorf("code = %s", body.Code)
	}
}

func TestUpdateModuleConfigValidates(t *testing.T) {
	ts, store := newTestServer(t)
	store.CreateTemplate("Config", "")
	spacer, _ := store.AddModule("spacer", -1)
	divider, _ := store.AddModule("divider", -1)
	path := func(id string) string { return "/active/modules/" + id + "/config" }

	tests := []struct {
		name   string
		id     string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown key", spacer.ID, `{"height":50,"bogus":"x"}`, http.StatusBadRequest, errors.ErrCodeInvalidField},
		{"invalid option", divider.ID, `{"style":"wavy"}`, http.StatusBadRequest, errors.ErrCodeInvalidOption},
		{"wrong type", spacer.ID, `{"height":"tall"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty patch", spacer.ID, `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, ts, "PATCH", path(tt.id), tt.body)
			expectStatus(t, resp, tt.status)
			if body := decodeBody[errorBody](t, resp); body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}

	// A rejected patch writes none of its keys.
	if got, _ := store.Module(spacer.ID); got.Config["height"] != 20 || got.Config["bogus"] != nil {
		t.Errorf("spacer config after rejected patches = %v", got.Config)
	}

	resp := do(t, ts, "PATCH", path(spacer.ID), `{"height":99999}`)
	expectStatus(t, resp, http.StatusOK)
	if got, _ := store.Module(spacer.ID); got.Config["height"] != 200 {
		t.Errorf("height = %v, want clamped to 200", got.Config["height"])
	}
}

func TestRowsReorderAndDrop(t *testing.T) {
	ts, store := newTestServer(t)
	store.CreateTemplate("Rows", "")
	var ids []string
	for _, k := range []string{"spacer", "divider", "footer", "image"} {
		m, _ := store.AddModule(k, -1)
		ids = append(ids, m.ID)
	}

	resp := do(t, ts, "POST", "/active/drop", `{"fromIndex":0,"zone":3}`)
	expectStatus(t, resp, http.StatusOK)
	if res := decodeBody[dragdrop.Result](t, resp); !res.Applied || res.To != 2 {
		t.Errorf("drop = %+v", res)
	}
	want := []string{ids[1], ids[2], ids[0], ids[3]}
	for i, m := range store.ActiveTemplate().Layout {
		if m.ID != want[i] {
			t.Fatalf("layout[%d] = %s, want %s", i, m.Type, want[i])
		}
	}

	resp = do(t, ts, "POST", "/active/drop", `{"fromIndex":1,"zone":2}`)
	expectStatus(t, resp, http.StatusOK)
	if res := decodeBody[dragdrop.Result](t, resp); res.Applied {
		t.Error("self-adjacent drop applied")
	}

	resp = do(t, ts, "POST", "/active/drop", `{"kind":"totals","zone":0}`)
	expectStatus(t, resp, http.StatusOK)
	if store.ActiveTemplate().Layout[0].Type != "totals" {
		t.Error("new module not inserted at zone 0")
	}
	expectStatus(t, do(t, ts, "POST", "/active/drop", `{"zone":0}`), http.StatusBadRequest)

	resp = do(t, ts, "POST", "/active/reorder", `{"from":0,"to":4}`)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[map[string]any](t, resp); got["moved"] != true {
		t.Errorf("reorder = %v", got)
	}

	resp = do(t, ts, "GET", "/active/rows", "")
	expectStatus(t, resp, http.StatusOK)
	rows := decodeBody[[]rowView](t, resp)
	n := 0
	for _, r := range rows {
		if r.Percent > 100 {
			t.Errorf("row over 100%%: %v", r.Percent)
		}
		n += len(r.Cells)
	}
	if n != 5 {
		t.Errorf("rows hold %d modules, want 5", n)
	}
}

func TestFormEndpoints(t *testing.T) {
	ts, store := newTestServer(t)
	store.CreateTemplate("Form", "")
	m, _ := store.AddModule("customText", -1)
	path := "/active/modules/" + m.ID + "/form"

	resp := do(t, ts, "GET", path, "")
	expectStatus(t, resp, http.StatusOK)
	if entries := decodeBody[[]form.Entry](t, resp); len(entries) == 0 || entries[0].Key != "text" {
		t.Errorf("entries = %+v", entries)
	}

	expectStatus(t, do(t, ts, "POST", path, `{"key":"fontSize","value":99}`), http.StatusOK)
	expectStatus(t, do(t, ts, "POST", path, `{"key":"alignment","value":"center"}`), http.StatusOK)
	got, _ := store.Module(m.ID)
	if got.Config["fontSize"] != 32 || got.Config["alignment"] != "center" {
		t.Errorf("config = %v", got.Config)
	}

	resp = do(t, ts, "POST", path, `{"key":"alignment","value":"justify"}`)
	expectStatus(t, resp, http.StatusBadRequest)
	if body := decodeBody[errorBody](t, resp); body.Code != errors.ErrCodeInvalidOption {
		t.Errorf("code = %s", body.Code)
	}
	expectStatus(t, do(t, ts, "POST", path, `{"key":"shadow","value":true}`), http.StatusBadRequest)
}

func TestPageStylesAndPreview(t *testing.T) {
	ts, store := newTestServer(t)

	expectStatus(t, do(t, ts, "PATCH", "/active/page", `{"orientation":"landscape","margins":{"top":10}}`), http.StatusOK)
	ps := store.ActiveTemplate().PageSettings
	if ps.Orientation != template.OrientationLandscape || ps.Margins.Top != 10 {
		t.Errorf("page = %+v", ps)
	}
	expectStatus(t, do(t, ts, "PATCH", "/active/page", `{"orientation":"sideways"}`), http.StatusBadRequest)

	expectStatus(t, do(t, ts, "PATCH", "/active/styles", `{"baseFontSize":12}`), http.StatusOK)
	if v := store.ActiveTemplate().Styles["baseFontSize"]; v != 12 {
		t.Errorf("baseFontSize = %v (%T)", v, v)
	}
	expectStatus(t, do(t, ts, "PATCH", "/active/styles", `{}`), http.StatusBadRequest)
	expectStatus(t, do(t, ts, "PATCH", "/active/styles", `not json`), http.StatusBadRequest)

	resp := do(t, ts, "GET", "/active/preview?format=dot", "")
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("digraph Layout")) {
		t.Errorf("preview = %s", body)
	}
	expectStatus(t, do(t, ts, "GET", "/active/preview?format=pdf", ""), http.StatusNotImplemented)
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidField:      http.StatusBadRequest,
		errors.ErrCodeModuleNotFound:    http.StatusNotFound,
		errors.ErrCodeRemoteUnavailable: http.StatusServiceUnavailable,
		errors.ErrCodeInternal:          http.StatusInternalServerError,
		"SOMETHING_ELSE":                http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
