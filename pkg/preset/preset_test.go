package preset

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/docdesigner/pkg/registry"
)

func TestPresetIDsAreDeterministic(t *testing.T) {
	now := time.Now()
	a, b := All(now), All(now.Add(time.Hour))
	if len(a) != len(b) {
		t.Fatal("preset count changed between calls")
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("preset %d id %q != %q", i, a[i].ID, b[i].ID)
		}
		for j := range a[i].Layout {
			if a[i].Layout[j].ID != b[i].Layout[j].ID {
				t.Errorf("preset %s module %d id not stable", a[i].ID, j)
			}
		}
	}
}

func TestPresetShape(t *testing.T) {
	reg := registry.Default()
	all := All(time.Now())

	if all[0].ID != DefaultID || !all[0].IsDefault {
		t.Fatalf("first preset = %q (default=%v), want default", all[0].ID, all[0].IsDefault)
	}

	ids := map[string]bool{}
	for i, tpl := range all {
		if ids[tpl.ID] {
			t.Errorf("duplicate preset id %q", tpl.ID)
		}
		ids[tpl.ID] = true
		if i > 0 && (!strings.HasPrefix(tpl.ID, "preset-") || tpl.IsDefault) {
			t.Errorf("preset %q: bad id or default flag", tpl.ID)
		}
		for _, m := range tpl.Layout {
			k, ok := reg.Lookup(m.Type)
			if !ok {
				t.Errorf("%s: unknown kind %q", tpl.ID, m.Type)
				continue
			}
			if !m.Width.Valid() {
				t.Errorf("%s/%s: invalid width %q", tpl.ID, m.ID, m.Width)
			}
			for key := range m.Config {
				if _, ok := k.Field(key); !ok {
					t.Errorf("%s/%s: config key %q not in %s schema", tpl.ID, m.ID, key, m.Type)
				}
			}
		}
	}

	if got := IDs(); len(got) != len(all) || got[1] != all[1].ID {
		t.Errorf("IDs() = %v", got)
	}
}

func TestAllReturnsFreshCopies(t *testing.T) {
	a := All(time.Now())
	a[0].Layout[1].Config["alignment"] = "left"
	a[0].Styles["primaryColor"] = "#000000"

	b := All(time.Now())
	if b[0].Layout[1].Config["alignment"] != "right" {
		t.Error("preset config shared between calls")
	}
	if b[0].Styles["primaryColor"] != PrimaryColor {
		t.Error("preset styles shared between calls")
	}
}

func TestBlank(t *testing.T) {
	b := Blank()
	if b.ID != "" || b.IsDefault {
		t.Errorf("blank id=%q default=%v", b.ID, b.IsDefault)
	}
	if b.Layout == nil || len(b.Layout) != 0 {
		t.Errorf("blank layout = %v, want empty", b.Layout)
	}
	if b.Styles["fontFamily"] != FontFamily {
		t.Errorf("styles = %v", b.Styles)
	}
	if b.PageSettings.Margins.Left != PageMargin || b.PageSettings.Size != PageSize {
		t.Errorf("page settings = %+v", b.PageSettings)
	}
}
