// Package kryon is the runtime core of a declarative UI toolchain: it
// loads compiled binary UI bundles, materializes them into a live
// element tree, and drives the tree through a reactive frame loop.
//
// # Architecture Overview
//
// The module is organized into packages with distinct responsibilities:
//
//	kryon/               Root package, documentation only
//	├── runtime/         Frame loop driver: load, update, render
//	├── krb/             Binary bundle format: decode, encode, validate
//	├── element/         Live element tree with handles and dirty flags
//	├── state/           Reactive state store, bindings and persistence
//	├── event/           Event queue, two-phase dispatch, shortcuts
//	├── mempool/         Size-classed block allocator for transient buffers
//	├── scripthost/      Function-reference resolution, wazero-backed
//	└── errors/          Structured error types shared by all packages
//
// # Quick Start
//
// Load a bundle and run frames:
//
//	rt, err := runtime.New(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close()
//
//	if err := rt.LoadFile("app.krb"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := rt.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
//	for running {
//	    rt.HandleEvent(nextInputEvent())
//	    if changed, _ := rt.Update(dt); changed {
//	        rt.Render(surface)
//	    }
//	}
//
// # Frame Model
//
// Each Update advances the document in a fixed order: queued events
// dispatch through capture and bubble phases, deferred state writes
// apply, changed state paths reconcile into bound element properties,
// and the layout pass resolves geometry for dirty subtrees. Render is
// separate and emits draw intents only for nodes still marked dirty,
// so an idle document costs nothing to draw.
//
// # Thread Safety
//
// A Runtime and everything it owns is confined to one driver
// goroutine. Only the mempool allocator can be configured for
// concurrent use.
package kryon
