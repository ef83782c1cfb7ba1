package template

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// DefaultName is used when a template is created without a name.
const DefaultName = "New Template"

// Width is a module's width class.
type Width string

// Width classes. Each maps to a fixed share of the page width.
const (
	WidthFull      Width = "full"
	WidthHalf      Width = "half"
	WidthThird     Width = "third"
	WidthTwoThirds Width = "two-thirds"
	WidthQuarter   Width = "quarter"
)

// Widths lists every width class in display order.
var Widths = []Width{WidthFull, WidthHalf, WidthTwoThirds, WidthThird, WidthQuarter}

var widthPercent = map[Width]float64{
	WidthFull:      100,
	WidthHalf:      50,
	WidthThird:     100.0 / 3,
	WidthTwoThirds: 200.0 / 3,
	WidthQuarter:   25,
}

// Percent returns the share of the page width occupied by w.
// Unknown classes occupy the full width.
func (w Width) Percent() float64 {
	if p, ok := widthPercent[w]; ok {
		return p
	}
	return 100
}

// Valid reports whether w is one of the known width classes.
func (w Width) Valid() bool {
	_, ok := widthPercent[w]
	return ok
}

// Config is a module's sparse configuration. Keys missing from the map fall
// back to the schema default at read time.
type Config map[string]any

// Module is one configurable block in a template layout.
type Module struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Width  Width  `json:"width"`
	Config Config `json:"config"`
}

// Clone returns a deep copy of m with the same id.
func (m Module) Clone() Module {
	m.Config = cloneConfig(m.Config)
	return m
}

// Margins are page margins in points.
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// PageSettings describe the printable page.
type PageSettings struct {
	Size        string  `json:"size"`
	Orientation string  `json:"orientation"`
	Margins     Margins `json:"margins"`
}

// Page orientations.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Styles is global document styling. The designer never interprets it.
type Styles map[string]any

// Template is a named document composed of an ordered module layout.
type Template struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	IsDefault    bool         `json:"isDefault"`
	PageSettings PageSettings `json:"pageSettings"`
	Styles       Styles       `json:"styles"`
	Layout       []Module     `json:"layout"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Clone returns a deep copy of t, ids included.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	c := *t
	if t.Styles != nil {
		c.Styles = Styles(cloneValue(map[string]any(t.Styles)).(map[string]any))
	}
	if t.Layout != nil {
		c.Layout = make([]Module, len(t.Layout))
		for i, m := range t.Layout {
			c.Layout[i] = m.Clone()
		}
	}
	return &c
}

// Fork returns a deep copy of t with a new template id and a new id for
// every module. Timestamps are set to now and IsDefault is cleared.
func (t *Template) Fork(name string, now time.Time) *Template {
	c := t.Clone()
	c.ID = NewID()
	c.Name = name
	c.IsDefault = false
	c.CreatedAt = now
	c.UpdatedAt = now
	for i := range c.Layout {
		c.Layout[i].ID = NewID()
	}
	return c
}

// IndexOf returns the layout index of the module with the given id, or -1.
func (t *Template) IndexOf(moduleID string) int {
	for i, m := range t.Layout {
		if m.ID == moduleID {
			return i
		}
	}
	return -1
}

// NewID mints an opaque identifier for templates and modules.
func NewID() string {
	return uuid.NewString()
}

func cloneConfig(c Config) Config {
	if c == nil {
		return nil
	}
	return Config(cloneValue(map[string]any(c)).(map[string]any))
}

// cloneValue deep-copies the JSON-shaped values stored in configs and styles.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if x == nil {
			return x
		}
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}

// Merge shallow-merges patch into a copy of c and returns it.
func (c Config) Merge(patch map[string]any) Config {
	out := make(Config, len(c)+len(patch))
	maps.Copy(out, c)
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge shallow-merges patch into a copy of s and returns it.
func (s Styles) Merge(patch map[string]any) Styles {
	out := make(Styles, len(s)+len(patch))
	maps.Copy(out, s)
	for k, v := range patch {
		out[k] = cloneValue(v)
	}
	return out
}
