// Package element holds the live UI document: a tree of typed nodes
// with properties, layout geometry, lifecycle states and dirty flags.
//
// Nodes live in an arena and are addressed by generation-checked
// handles, so a destroyed node can never be reached through a stale
// reference. A tree is built from a decoded bundle with FromBundle or
// programmatically with Create, and mutated through typed property
// setters that validate names and value kinds against a registry.
//
// Dirty propagation is the load-bearing part: invalidating layout on a
// node walks up through auto-sized ancestors and stops at the first
// fixed-size one, which is what keeps per-frame layout proportional to
// the change instead of the document.
//
// Trees are confined to the driver goroutine and are not safe for
// concurrent use.
package element
