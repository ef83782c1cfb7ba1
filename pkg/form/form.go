// Package form is the configuration editor behind the module inspector.
//
// A [Form] binds one module to its kind's schema. [Form.Entries] lists the
// fields in schema order with their effective values, and every write goes
// through [Form.Set], which validates the value for the field type and
// forwards it to the store as a single-key partial config:
//
//	f, err := form.New(reg, mod, store)
//	err = f.SetInput("fontSize", "48") // clamped to the field's max
//	err = f.Toggle("showLogo")
//	err = f.PickSwatch("textColor", 2)
//
// Writing one key at a time keeps concurrent edits of different fields
// from overwriting each other.
package form

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/docdesigner/pkg/errors"
	"github.com/matzehuels/docdesigner/pkg/registry"
	"github.com/matzehuels/docdesigner/pkg/template"
)

// ColorPresets are the swatches offered by color fields.
var ColorPresets = []string{"#8B5CF6", "#1e1b4b", "#3B82F6", "#374151", "#FFFFFF"}

// Editor applies partial config updates. [designer.Store] satisfies it.
type Editor interface {
	UpdateModuleConfig(moduleID string, partial map[string]any) bool
}

// Reader reads a module back from where it is stored. Editors that also
// implement it, such as [designer.Store], let [Form.Toggle] flip the stored
// value rather than the form's copy.
type Reader interface {
	Module(id string) (template.Module, bool)
}

// Entry is one rendered form field.
type Entry struct {
	Key      string             `json:"key"`
	Label    string             `json:"label"`
	Type     registry.FieldType `json:"type"`
	Value    any                `json:"value"`
	Default  any                `json:"default"`
	Min      *int               `json:"min,omitempty"`
	Max      *int               `json:"max,omitempty"`
	Options  []string           `json:"options,omitempty"`
	Swatches []string           `json:"swatches,omitempty"`
}

// Overridden reports whether the value differs from the field default.
func (e Entry) Overridden() bool { return e.Value != e.Default }

// Fields enumerates the schema of m's kind with effective values.
func Fields(reg *registry.Registry, m template.Module) ([]Entry, error) {
	k, ok := reg.Lookup(m.Type)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownKind, "unknown module kind %q", m.Type)
	}
	return entries(k, m.Config), nil
}

func entries(k *registry.Kind, cfg template.Config) []Entry {
	eff := k.Effective(cfg)
	out := make([]Entry, 0, len(k.Fields))
	for _, f := range k.Fields {
		e := Entry{
			Key:     f.Key,
			Label:   f.Label,
			Type:    f.Type,
			Value:   eff[f.Key],
			Default: f.Default,
			Options: f.Options,
		}
		switch f.Type {
		case registry.FieldNumber:
			lo, hi := f.Bounds()
			e.Min, e.Max = &lo, &hi
			// Reloaded snapshots decode numbers as float64.
			if n, ok := toInt(e.Value); ok {
				e.Value = n
			}
		case registry.FieldColor:
			e.Swatches = ColorPresets
		}
		out = append(out, e)
	}
	return out
}

// Form edits the config of one module.
type Form struct {
	mod  template.Module
	kind *registry.Kind
	ed   Editor
}

// New binds m to its kind and to the editor that receives writes.
func New(reg *registry.Registry, m template.Module, ed Editor) (*Form, error) {
	k, ok := reg.Lookup(m.Type)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownKind, "unknown module kind %q", m.Type)
	}
	m = m.Clone()
	if m.Config == nil {
		m.Config = template.Config{}
	}
	return &Form{mod: m, kind: k, ed: ed}, nil
}

// Module returns the module as last written through the form.
func (f *Form) Module() template.Module { return f.mod.Clone() }

// Entries lists the fields in schema order.
func (f *Form) Entries() []Entry { return entries(f.kind, f.mod.Config) }

// Value returns the effective value of key.
func (f *Form) Value(key string) (any, bool) {
	if _, ok := f.kind.Field(key); !ok {
		return nil, false
	}
	return f.kind.Effective(f.mod.Config)[key], true
}

// Set validates v for the field and writes it. Number values are clamped
// into the field bounds before they are written.
func (f *Form) Set(key string, v any) error {
	fld, err := f.field(key)
	if err != nil {
		return err
	}
	val, err := Coerce(fld, v)
	if err != nil {
		return err
	}
	return f.write(key, val)
}

// SetAll validates every key of partial before writing any of them, then
// writes the coerced values one key at a time in sorted key order. Unknown
// keys and invalid values reject the whole patch.
func (f *Form) SetAll(partial map[string]any) error {
	if len(partial) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "config patch is empty")
	}
	keys := make([]string, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	vals := make(map[string]any, len(partial))
	for _, k := range keys {
		fld, err := f.field(k)
		if err != nil {
			return err
		}
		v, err := Coerce(fld, partial[k])
		if err != nil {
			return err
		}
		vals[k] = v
	}
	for _, k := range keys {
		if err := f.write(k, vals[k]); err != nil {
			return err
		}
	}
	return nil
}

// SetInput parses raw for the field and writes it.
func (f *Form) SetInput(key, raw string) error {
	fld, err := f.field(key)
	if err != nil {
		return err
	}
	v, err := ParseInput(fld, raw)
	if err != nil {
		return err
	}
	return f.Set(key, v)
}

// Toggle flips a boolean field. It starts from the stored value when the
// editor is a [Reader], so writes made elsewhere are not undone.
func (f *Form) Toggle(key string) error {
	fld, err := f.field(key)
	if err != nil {
		return err
	}
	if fld.Type != registry.FieldBoolean {
		return errors.New(errors.ErrCodeInvalidInput, "field %q is not a boolean", key)
	}
	f.refresh()
	cur, _ := f.Value(key)
	b, _ := cur.(bool)
	return f.write(key, !b)
}

// refresh reloads the module config when the editor can read it back.
func (f *Form) refresh() {
	r, ok := f.ed.(Reader)
	if !ok {
		return
	}
	m, ok := r.Module(f.mod.ID)
	if !ok {
		return
	}
	if m.Config == nil {
		m.Config = template.Config{}
	}
	f.mod.Config = m.Config
}

// PickSwatch writes the i-th preset color into a color field.
func (f *Form) PickSwatch(key string, i int) error {
	fld, err := f.field(key)
	if err != nil {
		return err
	}
	if fld.Type != registry.FieldColor {
		return errors.New(errors.ErrCodeInvalidInput, "field %q is not a color", key)
	}
	if i < 0 || i >= len(ColorPresets) {
		return errors.New(errors.ErrCodeInvalidOption, "no swatch %d", i)
	}
	return f.write(key, ColorPresets[i])
}

func (f *Form) field(key string) (registry.Field, error) {
	fld, ok := f.kind.Field(key)
	if !ok {
		return registry.Field{}, errors.New(errors.ErrCodeInvalidField, "%s has no field %q", f.kind.Name, key)
	}
	return fld, nil
}

func (f *Form) write(key string, v any) error {
	if !f.ed.UpdateModuleConfig(f.mod.ID, map[string]any{key: v}) {
		return errors.New(errors.ErrCodeModuleNotFound, "module %q is not in the active template", f.mod.ID)
	}
	f.mod.Config[key] = v
	return nil
}

// =============================================================================
// Value conversion
// =============================================================================

// Coerce checks v against the field type and returns the value to store.
// Numbers become ints clamped into the field bounds; JSON numbers are
// accepted. Select values must be one of the options.
func Coerce(f registry.Field, v any) (any, error) {
	switch f.Type {
	case registry.FieldBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(f, v)
		}
		return b, nil

	case registry.FieldNumber:
		n, ok := toInt(v)
		if !ok {
			return nil, typeError(f, v)
		}
		lo, hi := f.Bounds()
		return min(max(n, lo), hi), nil

	case registry.FieldSelect:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(f, v)
		}
		if !f.Allows(s) {
			return nil, errors.New(errors.ErrCodeInvalidOption, "%q is not an option of %s (%s)",
				s, f.Key, strings.Join(f.Options, ", "))
		}
		return s, nil

	default:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(f, v)
		}
		return s, nil
	}
}

// ParseInput converts textual input, such as a CLI key=value argument,
// into a value for the field.
func ParseInput(f registry.Field, raw string) (any, error) {
	switch f.Type {
	case registry.FieldBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s expects true or false", f.Key)
		}
		return b, nil
	case registry.FieldNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s expects a number, got %q", f.Key, raw)
		}
		return n, nil
	case registry.FieldText, registry.FieldTextarea:
		return raw, nil
	default:
		return strings.TrimSpace(raw), nil
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return roundInt(float64(n))
	case float64:
		return roundInt(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return roundInt(f)
	}
	return 0, false
}

func roundInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Round(f)
	if f > math.MaxInt32 {
		f = math.MaxInt32
	} else if f < math.MinInt32 {
		f = math.MinInt32
	}
	return int(f), true
}

func typeError(f registry.Field, v any) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s expects a %s value, got %T", f.Key, f.Type, v)
}
