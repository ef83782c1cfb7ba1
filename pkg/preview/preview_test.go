package preview

import (
	"strings"
	"testing"

	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

func sample() *template.Template {
	return &template.Template{
		Name:   "Wire",
		Styles: template.Styles{"primaryColor": "#123456"},
		Layout: []template.Module{
			{ID: "h", Type: "invoiceHeader", Width: template.WidthFull},
			{ID: "a", Type: "companyInfo", Width: template.WidthHalf, Config: template.Config{"showLogo": false}},
			{ID: "b", Type: "clientInfo", Width: template.WidthHalf},
			{ID: "x", Type: "hologram", Width: template.WidthThird},
		},
	}
}

func TestToDOTRanks(t *testing.T) {
	dot := ToDOT(sample(), registry.Default(), Options{})

	if got := strings.Count(dot, "rank=same"); got != 3 {
		t.Errorf("ranks = %d, want 3\n%s", got, dot)
	}
	for _, want := range []string{
		`label="Wire"`,
		`"a" -> "b"`,
		`"h" -> "a"`,
		`"a" -> "x"`,
		`color="#123456"`,
		`width=6.00`,
		`width=3.00`,
		`width=2.00`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if !strings.Contains(dot, `"x" [label="hologram"`) || !strings.Contains(dot, "dashed") {
		t.Error("unknown kind should be drawn dashed with its raw type")
	}
}

func TestToDOTDetailedAndSelected(t *testing.T) {
	dot := ToDOT(sample(), registry.Default(), Options{Detailed: true, Selected: "b"})
	if !strings.Contains(dot, `Company Info\nhalf · 1 edited`) {
		t.Errorf("detailed label missing override count\n%s", dot)
	}
	if !strings.Contains(dot, `Client Info\nhalf", width=3.00, color="#123456", fillcolor="#123456"`) {
		t.Errorf("selected module not highlighted\n%s", dot)
	}
}

func TestToDOTEmpty(t *testing.T) {
	dot := ToDOT(&template.Template{Name: "Empty"}, registry.Default(), Options{})
	if strings.Contains(dot, "subgraph") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("unexpected DOT for empty layout\n%s", dot)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Error("svg without viewBox changed")
	}
}
