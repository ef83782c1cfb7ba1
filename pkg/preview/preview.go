// Package preview draws a template's packed rows as a Graphviz wireframe.
//
// The wireframe shows arrangement only: one rank per row, one box per module,
// box width proportional to the module's width class. It is not a document
// renderer.
//
//	dot := preview.ToDOT(tpl, registry.Default(), preview.Options{})
//	svg, err := preview.RenderSVG(ctx, dot)
package preview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/docdesigner/pkg/layout"
	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// PageWidth is the width in inches of a full-width box.
const PageWidth = 6.0

// Options configures wireframe generation.
type Options struct {
	// Detailed adds the width class and the number of overridden config
	// keys to each box.
	Detailed bool

	// Selected highlights the module with this id.
	Selected string
}

// ToDOT converts a template to Graphviz DOT source.
func ToDOT(t *template.Template, reg *registry.Registry, opts Options) string {
	accent := "#8B5CF6"
	if c, ok := t.Styles["primaryColor"].(string); ok && c != "" {
		accent = c
	}

	var buf bytes.Buffer
	buf.WriteString("digraph Layout {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  label=%q;\n", t.Name)
	buf.WriteString("  labelloc=t;\n")
	buf.WriteString("  fontname=\"Helvetica\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, height=0.6, fontname=\"Helvetica\", fontsize=11];\n")
	buf.WriteString("  edge [style=invis];\n")
	buf.WriteString("  ranksep=0.25;\n")
	buf.WriteString("  nodesep=0.1;\n")

	rows := layout.Pack(t.Layout)
	for i, row := range rows {
		fmt.Fprintf(&buf, "\n  subgraph row%d {\n    rank=same;\n", i)
		for _, c := range row.Cells {
			fmt.Fprintf(&buf, "    %q [%s];\n", nodeID(c), strings.Join(attrs(c.Module, reg, accent, opts), ", "))
		}
		buf.WriteString("  }\n")
		for j := 1; j < len(row.Cells); j++ {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(row.Cells[j-1]), nodeID(row.Cells[j]))
		}
		if i > 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", nodeID(rows[i-1].Cells[0]), nodeID(row.Cells[0]))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeID(c layout.Cell) string {
	if c.Module.ID != "" {
		return c.Module.ID
	}
	return "m" + strconv.Itoa(c.Index)
}

func attrs(m template.Module, reg *registry.Registry, accent string, opts Options) []string {
	name := m.Type
	k, known := reg.Lookup(m.Type)
	if known {
		name = k.DisplayName
	}

	label := name
	if opts.Detailed {
		label = fmt.Sprintf("%s\n%s", name, m.Width)
		if known {
			n := 0
			for _, f := range k.Fields {
				if v, ok := m.Config[f.Key]; ok && v != f.Default {
					n++
				}
			}
			if n > 0 {
				label += fmt.Sprintf(" · %d edited", n)
			}
		}
	}

	w := PageWidth * float64(layout.Units(m.Width)) / float64(layout.Span)
	out := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("width=%.2f", w),
		fmt.Sprintf("color=%q", accent),
	}
	switch {
	case m.ID != "" && m.ID == opts.Selected:
		out = append(out, fmt.Sprintf("fillcolor=%q", accent), "fontcolor=white", "penwidth=2")
	case !known:
		out = append(out, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return out
}

// RenderSVG renders DOT source to SVG.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales to its
// container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
