// Package designer is the template store: the single owner of the template
// collection, the active template pointer and the module selection.
//
// # Mutations
//
// Every operation is a total, local transform. References to templates or
// modules that do not exist (a stale UI, a racing client) are silent no-ops
// reported through a false return value, never an error. Structural guards
// behave the same way: deleting the last template does nothing.
//
// Each structural mutation stamps the affected template's UpdatedAt, writes
// the whole collection to the local [persist.Backend] before returning, and
// hands the changed template to the remote [Publisher] without waiting for
// it. Remote failure never rolls back or blocks a local change.
//
// # Reordering
//
// [Store.ReorderModules] is a splice: the module at from is removed and then
// inserted at to, where to indexes the list after the removal. Callers
// translating a drop position into a target index must account for this (see
// package dragdrop).
//
// # Concurrency
//
// A Store is safe for concurrent use. One mutex serialises every operation,
// so each call observes the fully settled result of the previous one.
// Subscribers are notified after the lock is released.
// Read accessors return deep copies.
//
//	s := designer.Open(ctx, backend, designer.WithLogger(logger))
//	m, _ := s.AddModule("lineItems", -1)
//	s.UpdateModuleConfig(m.ID, map[string]any{"showQuantity": false})
//	rows := s.Rows()
package designer
