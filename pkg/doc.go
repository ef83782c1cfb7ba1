// Package pkg provides the core libraries for docdesigner, a layout designer
// for invoice document templates.
//
// # Overview
//
// A template is an ordered list of modules (header, line items, totals, ...)
// plus page settings and styles. Modules declare a width in twelfths of the
// page and are packed left to right into rows. The pkg directory is
// organized into three areas:
//
//  1. Model - [template], [registry], [preset] and [layout]
//  2. Editing - [designer], [dragdrop] and [form]
//  3. Infrastructure - [persist], [mirror], [preview], [observability] and [errors]
//
// # Architecture
//
// Every mutation flows through the designer store:
//
//	CLI / TUI / HTTP
//	       ↓
//	  [dragdrop], [form] (translate gestures and edits)
//	       ↓
//	  [designer] Store (mutate, stamp, notify)
//	       ↓
//	  [persist] FileBackend ──→ [mirror] Redis / MongoDB
//
// Reads never mutate: [layout] packs rows on demand and [preview] renders
// them as a Graphviz wireframe.
//
// # Quick Start
//
//	backend, _ := persist.NewFileBackend("", "")
//	s := designer.Open(ctx, backend)
//
//	m, _ := s.AddModule("lineItems", -1)
//	s.UpdateModuleConfig(m.ID, map[string]any{"showTax": true})
//
//	for _, row := range layout.Pack(s.ActiveTemplate().Layout) {
//	    fmt.Println(len(row.Cells), row.Percent())
//	}
//
// # Main Packages
//
// [template] - Template, Module and PageSettings types, default values, and
// JSON import/export.
//
// [registry] - The compiled-in catalog of module kinds with their default
// config, allowed widths and field schema.
//
// [designer] - The template store. Owns the collection, the active template
// and the selection, stamps UpdatedAt, persists after every mutation and
// publishes change events.
//
// [dragdrop] - The drop-zone protocol used by the canvas. Resolves a drop
// into an insert or a move and applies it through the store.
//
// [form] - Config editing backed by a kind's field schema, with string
// input parsing and color swatches.
//
// [persist] - Versioned single-key storage on the local filesystem with
// atomic writes.
//
// [mirror] - Replication of the collection to Redis or MongoDB with a
// persisted sync queue for offline writes.
//
// [preview] - DOT and SVG wireframes of packed rows.
//
// [observability] - Hooks for store, mirror and HTTP events.
//
// [errors] - Structured error codes shared by the CLI and the HTTP API.
package pkg
