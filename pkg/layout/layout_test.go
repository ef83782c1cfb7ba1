package layout

import (
	"math/rand"
	"testing"

	"github.com/matzehuels/docdesigner/pkg/template"
)

func mods(widths ...template.Width) []template.Module {
	out := make([]template.Module, len(widths))
	for i, w := range widths {
		out[i] = template.Module{ID: string(rune('a' + i)), Type: "customText", Width: w}
	}
	return out
}

func shape(rows []Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		for _, c := range r.Cells {
			out[i] = append(out[i], c.Module.ID)
		}
	}
	return out
}

func equalShape(a, b [][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

const (
	full    = template.WidthFull
	half    = template.WidthHalf
	third   = template.WidthThird
	twoThrd = template.WidthTwoThirds
	quarter = template.WidthQuarter
)

func TestPack(t *testing.T) {
	tests := []struct {
		name   string
		widths []template.Width
		want   [][]string
	}{
		{"empty", nil, [][]string{}},
		{"single full", []template.Width{full}, [][]string{{"a"}}},
		{"two halves", []template.Width{half, half}, [][]string{{"a", "b"}}},
		{"three halves", []template.Width{half, half, half}, [][]string{{"a", "b"}, {"c"}}},
		{"three thirds", []template.Width{third, third, third}, [][]string{{"a", "b", "c"}}},
		{"third two-thirds", []template.Width{third, twoThrd, quarter}, [][]string{{"a", "b"}, {"c"}}},
		{"four quarters", []template.Width{quarter, quarter, quarter, quarter}, [][]string{{"a", "b", "c", "d"}}},
		{"full breaks accumulator", []template.Width{half, full, half}, [][]string{{"a"}, {"b"}, {"c"}}},
		{"overflow starts row", []template.Width{twoThrd, half, half}, [][]string{{"a"}, {"b", "c"}}},
		{"quarter half quarter", []template.Width{quarter, half, quarter, third}, [][]string{{"a", "b", "c"}, {"d"}}},
		{"unknown width is full", []template.Width{half, "giant", half}, [][]string{{"a"}, {"b"}, {"c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shape(Pack(mods(tt.widths...)))
			if !equalShape(got, tt.want) {
				t.Errorf("Pack() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPackRecordsSourceIndex(t *testing.T) {
	rows := Pack(mods(half, full, half, half))
	want := [][]int{{0}, {1}, {2, 3}}
	for i, r := range rows {
		for j, c := range r.Cells {
			if c.Index != want[i][j] {
				t.Errorf("row %d cell %d index = %d, want %d", i, j, c.Index, want[i][j])
			}
		}
	}
}

// Random layouts must keep every row within the page, never pair a full
// module with siblings, and preserve the source order exactly.
func TestPackInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := rng.Intn(20)
		ws := make([]template.Width, n)
		for i := range ws {
			ws[i] = template.Widths[rng.Intn(len(template.Widths))]
		}
		in := mods(ws...)
		rows := Pack(in)

		next := 0
		for ri, r := range rows {
			if len(r.Cells) == 0 {
				t.Fatalf("iter %d: empty row %d", iter, ri)
			}
			if r.Used() > Span {
				t.Fatalf("iter %d: row %d overflows (%d units)", iter, ri, r.Used())
			}
			for _, c := range r.Cells {
				if c.Module.Width == full && len(r.Cells) != 1 {
					t.Fatalf("iter %d: full module shares row %d", iter, ri)
				}
				if c.Index != next || c.Module.ID != in[next].ID {
					t.Fatalf("iter %d: order broken at %d", iter, next)
				}
				next++
			}
		}
		if next != n {
			t.Fatalf("iter %d: packed %d of %d modules", iter, next, n)
		}
	}
}

func TestPackDoesNotMutateInput(t *testing.T) {
	in := mods(half, half)
	_ = Pack(in)
	if in[0].ID != "a" || in[1].Width != half {
		t.Error("input modified")
	}
}

func TestRowPercent(t *testing.T) {
	rows := Pack(mods(third, twoThrd))
	if got := rows[0].Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100", got)
	}
	if got := len(rows[0].Modules()); got != 2 {
		t.Errorf("Modules() len = %d", got)
	}
}
