// Package registry is the compiled-in catalog of module kinds.
//
// Each [Kind] declares its display metadata, its default [template.Width]
// and an ordered configuration schema. The registry is read-only input to
// the template store (to snapshot defaults when a module is added) and to
// the form engine (to enumerate editors). Lookups of unknown kinds report
// ok=false; they never panic.
//
//	reg := registry.Default()
//	k, ok := reg.Lookup("lineItems")
//	cfg := k.Defaults()           // fully materialised defaults
//	v := k.Effective(mod.Config)  // sparse overrides merged over defaults
package registry

import (
	"slices"

	"github.com/matzehuels/docdesigner/pkg/template"
)

// FieldType identifies the editor used for a schema field.
type FieldType string

// Field types.
const (
	FieldBoolean  FieldType = "boolean"
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldColor    FieldType = "color"
)

// Default bounds for number fields that declare none.
const (
	DefaultMin = 0
	DefaultMax = 100
)

// Field is one entry of a kind's configuration schema.
type Field struct {
	Key     string    `json:"key"`
	Type    FieldType `json:"type"`
	Label   string    `json:"label"`
	Default any       `json:"default"`

	// Min and Max bound number fields (inclusive). Nil means the
	// DefaultMin/DefaultMax bound applies.
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`

	// Options lists the allowed values of a select field, in display order.
	Options []string `json:"options,omitempty"`
}

// Bounds returns the inclusive range of a number field.
func (f Field) Bounds() (lo, hi int) {
	lo, hi = DefaultMin, DefaultMax
	if f.Min != nil {
		lo = *f.Min
	}
	if f.Max != nil {
		hi = *f.Max
	}
	return lo, hi
}

// Allows reports whether v is one of a select field's options.
func (f Field) Allows(v string) bool {
	return slices.Contains(f.Options, v)
}

// Kind is a registry entry.
type Kind struct {
	Name         string         `json:"kind"`
	DisplayName  string         `json:"displayName"`
	Description  string         `json:"description"`
	Icon         string         `json:"icon"`
	Category     string         `json:"category"`
	DefaultWidth template.Width `json:"defaultWidth"`
	Fields       []Field        `json:"configSchema"`
}

// Field returns the schema field with the given key.
func (k *Kind) Field(key string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Defaults returns a fresh config holding every field's default value.
func (k *Kind) Defaults() template.Config {
	cfg := make(template.Config, len(k.Fields))
	for _, f := range k.Fields {
		cfg[f.Key] = f.Default
	}
	return cfg
}

// Effective resolves a sparse config against the schema: present keys win,
// absent keys take the field default. Keys not in the schema are dropped.
func (k *Kind) Effective(cfg template.Config) template.Config {
	out := make(template.Config, len(k.Fields))
	for _, f := range k.Fields {
		if v, ok := cfg[f.Key]; ok {
			out[f.Key] = v
		} else {
			out[f.Key] = f.Default
		}
	}
	return out
}

// Registry maps kind names to their definitions.
type Registry struct {
	kinds map[string]*Kind
	order []string
}

// New builds a registry from kinds. Later duplicates replace earlier ones.
func New(kinds ...*Kind) *Registry {
	r := &Registry{kinds: make(map[string]*Kind, len(kinds))}
	for _, k := range kinds {
		if _, dup := r.kinds[k.Name]; !dup {
			r.order = append(r.order, k.Name)
		}
		r.kinds[k.Name] = k
	}
	return r
}

// Lookup returns the kind with the given name.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Kinds returns every kind in registration order.
func (r *Registry) Kinds() []*Kind {
	out := make([]*Kind, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.kinds[name])
	}
	return out
}

// Categories returns kinds grouped by category, in first-seen order.
func (r *Registry) Categories() ([]string, map[string][]*Kind) {
	var names []string
	groups := make(map[string][]*Kind)
	for _, k := range r.Kinds() {
		if _, ok := groups[k.Category]; !ok {
			names = append(names, k.Category)
		}
		groups[k.Category] = append(groups[k.Category], k)
	}
	return names, groups
}

// Effective resolves a module's config against its kind. Modules of unknown
// kinds return their stored config unchanged.
func (r *Registry) Effective(m template.Module) template.Config {
	k, ok := r.Lookup(m.Type)
	if !ok {
		return m.Config.Merge(nil)
	}
	return k.Effective(m.Config)
}
