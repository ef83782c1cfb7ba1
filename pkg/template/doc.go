// Package template defines the document model edited by the designer:
// templates, the modules in their layouts, page settings and width classes.
//
// # Core Types
//
//   - [Template]: a named document with an ordered [Module] layout
//   - [Module]: one block in a layout with a [Width] class and a sparse
//     [Config] override map
//   - [PageSettings]: paper size, orientation and margins
//   - [Styles]: opaque global styling passed through untouched
//
// Templates own their modules outright. [Template.Clone] and [Module.Clone]
// deep-copy, and [Template.Fork] additionally mints fresh ids so a copy can
// never alias the original's modules.
//
// # Serialization
//
// The JSON encoding (camelCase keys) is shared by the local snapshot, the
// remote mirror and the export/import format. [WriteJSON] exports a single
// template as a standalone document; [ReadJSON] decodes an import after a
// minimal structural check (a "layout" array must be present).
package template
