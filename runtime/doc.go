// Package runtime drives a loaded document through the frame loop.
//
// A Runtime owns the element tree, the state store, the event
// dispatcher and a block allocator, and advances them in a fixed
// order each frame: queued events dispatch first, deferred state
// writes apply second, changed bindings reconcile into element
// properties third, and the layout pass runs last. Render is a
// separate call that walks the tree in paint order and emits draw
// intents to a Renderer for nodes still marked dirty.
//
// Bundles load from disk through an LRU cache keyed by absolute path.
// Handler properties such as on_click resolve through a
// scripthost.FuncSource at dispatch time.
//
// A Runtime is confined to one driver goroutine.
package runtime
