// Package layout packs a flat module sequence into visual rows.
//
// Modules flow left to right. A row closes when the next module would
// overflow the page width, when a row reaches exactly the full width, or
// around any full-width module, which always sits alone. Widths are
// summed in twelfths of the page so that three thirds close a row exactly
// without floating-point drift.
//
// [Pack] is pure: it never mutates its input and the same layout always
// produces the same rows.
package layout

import (
	"github.com/matzehuels/docdesigner/pkg/template"
)

// Span is the page width in layout units.
const Span = 12

var units = map[template.Width]int{
	template.WidthFull:      12,
	template.WidthHalf:      6,
	template.WidthTwoThirds: 8,
	template.WidthThird:     4,
	template.WidthQuarter:   3,
}

// Units returns the share of the page a width class occupies, in twelfths.
// Unknown classes are treated as full width.
func Units(w template.Width) int {
	if u, ok := units[w]; ok {
		return u
	}
	return Span
}

// Cell is one module placed in a row.
type Cell struct {
	Module template.Module
	// Index is the module's position in the source layout.
	Index int
}

// Row is a horizontal group of modules.
type Row struct {
	Cells []Cell
}

// Used returns the row's occupied width in layout units.
func (r Row) Used() int {
	n := 0
	for _, c := range r.Cells {
		n += Units(c.Module.Width)
	}
	return n
}

// Percent returns the row's occupied width as a percentage of the page.
func (r Row) Percent() float64 {
	return float64(r.Used()) * 100 / Span
}

// Modules returns the modules of the row in order.
func (r Row) Modules() []template.Module {
	out := make([]template.Module, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Module
	}
	return out
}

// Pack groups mods into rows. An empty layout yields no rows.
func Pack(mods []template.Module) []Row {
	var (
		rows []Row
		cur  []Cell
		used int
	)
	flush := func() {
		if len(cur) > 0 {
			rows = append(rows, Row{Cells: cur})
			cur, used = nil, 0
		}
	}

	for i, m := range mods {
		u := Units(m.Width)
		if u == Span || used+u > Span {
			flush()
		}
		cur = append(cur, Cell{Module: m, Index: i})
		used += u
		if used == Span {
			flush()
		}
	}
	flush()
	return rows
}
