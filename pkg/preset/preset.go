// Package preset holds the built-in invoice templates.
//
// Presets have deterministic ids so a saved collection can be compared
// against the current preset set by id: the first preset is always
// "default", the rest are "preset-<name>", and module ids are
// "<name>-mod-<index>". Bump [Version] whenever a preset is added; stale
// snapshots then receive the missing presets on load without losing
// user edits.
package preset

import (
	"strconv"
	"time"

	"github.com/matzehuels/docdesigner/pkg/template"
)

// Version is the current preset set version.
const Version = 4

// DefaultID is the id of the baseline preset.
const DefaultID = "default"

// Default page settings and styles.
const (
	PageSize     = "A4"
	PageMargin   = 40
	FontFamily   = "Helvetica"
	BaseFontSize = 10
	PrimaryColor = "#8B5CF6"
	TextColor    = "#1F2937"
)

// Font families understood by the renderer.
var FontFamilies = []string{"Helvetica", "Times-Roman", "Courier"}

type mod struct {
	kind   string
	width  template.Width
	config template.Config
}

type def struct {
	name   string // id suffix
	title  string
	styles template.Styles
	layout []mod
}

func styles(primary, secondary, font string) template.Styles {
	return template.Styles{
		"primaryColor":    primary,
		"secondaryColor":  secondary,
		"textColor":       TextColor,
		"backgroundColor": "#FFFFFF",
		"fontFamily":      font,
		"baseFontSize":    BaseFontSize,
	}
}

// standardLayout is the layout of the default preset.
var standardLayout = []mod{
	{"companyInfo", template.WidthHalf, nil},
	{"invoiceHeader", template.WidthHalf, template.Config{"alignment": "right"}},
	{"clientInfo", template.WidthHalf, nil},
	{"projectInfo", template.WidthHalf, nil},
	{"lineItems", template.WidthFull, nil},
	{"paymentTerms", template.WidthHalf, nil},
	{"totals", template.WidthHalf, nil},
	{"bankDetails", template.WidthFull, nil},
	{"footer", template.WidthFull, nil},
}

var defs = []def{
	{
		name:   DefaultID,
		title:  "Standard",
		styles: styles(PrimaryColor, "#1e1b4b", "Helvetica"),
		layout: standardLayout,
	},
	{
		name:   "modern",
		title:  "Modern Blue",
		styles: styles("#3B82F6", "#1E3A8A", "Helvetica"),
		layout: []mod{
			{"invoiceHeader", template.WidthFull, template.Config{"alignment": "left", "titleColor": "#3B82F6"}},
			{"divider", template.WidthFull, template.Config{"color": "#3B82F6", "thickness": 2}},
			{"companyInfo", template.WidthThird, nil},
			{"clientInfo", template.WidthThird, nil},
			{"projectInfo", template.WidthThird, nil},
			{"lineItems", template.WidthFull, template.Config{"headerBackground": "#3B82F6"}},
			{"bankDetails", template.WidthTwoThirds, template.Config{"labelColor": "#3B82F6"}},
			{"totals", template.WidthThird, template.Config{"totalBackground": "#3B82F6"}},
			{"footer", template.WidthFull, nil},
		},
	},
	{
		name:   "minimal",
		title:  "Minimal",
		styles: styles("#374151", "#9CA3AF", "Helvetica"),
		layout: []mod{
			{"invoiceHeader", template.WidthFull, template.Config{"alignment": "left", "titleColor": "#374151"}},
			{"companyInfo", template.WidthHalf, template.Config{"showLogo": false}},
			{"clientInfo", template.WidthHalf, nil},
			{"lineItems", template.WidthFull, template.Config{"headerBackground": "#FFFFFF", "headerTextColor": "#374151"}},
			{"totals", template.WidthHalf, template.Config{"totalBackground": "#374151"}},
			{"paymentTerms", template.WidthHalf, template.Config{"labelColor": "#374151"}},
		},
	},
	{
		name:   "classic",
		title:  "Classic Serif",
		styles: styles("#1e1b4b", "#4B5563", "Times-Roman"),
		layout: []mod{
			{"companyInfo", template.WidthTwoThirds, nil},
			{"image", template.WidthThird, template.Config{"alignment": "right"}},
			{"invoiceHeader", template.WidthFull, template.Config{"alignment": "center", "titleColor": "#1e1b4b"}},
			{"clientInfo", template.WidthHalf, nil},
			{"projectInfo", template.WidthHalf, template.Config{"backgroundColor": "#FFFFFF"}},
			{"lineItems", template.WidthFull, template.Config{"headerBackground": "#1e1b4b"}},
			{"spacer", template.WidthFull, nil},
			{"termsConditions", template.WidthTwoThirds, template.Config{"labelColor": "#1e1b4b"}},
			{"totals", template.WidthThird, template.Config{"totalBackground": "#1e1b4b"}},
			{"signature", template.WidthFull, nil},
			{"footer", template.WidthFull, nil},
		},
	},
	{
		name:   "production",
		title:  "Production Detailed",
		styles: styles(PrimaryColor, "#1e1b4b", "Helvetica"),
		layout: []mod{
			{"companyInfo", template.WidthQuarter, nil},
			{"clientInfo", template.WidthQuarter, nil},
			{"invoiceHeader", template.WidthHalf, nil},
			{"projectInfo", template.WidthFull, nil},
			{"lineItems", template.WidthFull, template.Config{"groupBySection": true}},
			{"customText", template.WidthHalf, template.Config{"text": "Usage rights as agreed in the quote."}},
			{"totals", template.WidthHalf, nil},
			{"divider", template.WidthFull, template.Config{"style": "dashed"}},
			{"bankDetails", template.WidthHalf, nil},
			{"paymentTerms", template.WidthHalf, nil},
			{"termsConditions", template.WidthFull, nil},
			{"signature", template.WidthFull, template.Config{"showAcceptedBy": false}},
			{"footer", template.WidthFull, nil},
		},
	},
}

// ID returns the template id for a preset name.
func ID(name string) string {
	if name == DefaultID {
		return DefaultID
	}
	return "preset-" + name
}

func build(d def, now time.Time) *template.Template {
	t := &template.Template{
		ID:           ID(d.name),
		Name:         d.title,
		IsDefault:    d.name == DefaultID,
		PageSettings: DefaultPageSettings(),
		Styles:       d.styles.Merge(nil),
		Layout:       make([]template.Module, len(d.layout)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for i, m := range d.layout {
		t.Layout[i] = template.Module{
			ID:     d.name + "-mod-" + strconv.Itoa(i),
			Type:   m.kind,
			Width:  m.width,
			Config: m.config.Merge(nil),
		}
	}
	return t
}

// All returns fresh copies of every preset, default first.
func All(now time.Time) []*template.Template {
	out := make([]*template.Template, len(defs))
	for i, d := range defs {
		out[i] = build(d, now)
	}
	return out
}

// IDs returns the ids of every preset in order.
func IDs() []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = ID(d.name)
	}
	return out
}

// Blank returns the built-in blank template used by CreateTemplate when no
// source is given and by ResetTemplate: default page settings and styles
// over an empty layout. Its id is empty; callers mint their own.
func Blank() *template.Template {
	return &template.Template{
		Name:         template.DefaultName,
		PageSettings: DefaultPageSettings(),
		Styles:       DefaultStyles(),
		Layout:       []template.Module{},
	}
}

// DefaultPageSettings returns A4 portrait with uniform margins.
func DefaultPageSettings() template.PageSettings {
	return template.PageSettings{
		Size:        PageSize,
		Orientation: template.OrientationPortrait,
		Margins:     template.Margins{Top: PageMargin, Right: PageMargin, Bottom: PageMargin, Left: PageMargin},
	}
}

// DefaultStyles returns the styles of the default preset.
func DefaultStyles() template.Styles {
	return defs[0].styles.Merge(nil)
}
