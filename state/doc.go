// Package state implements the reactive value tree behind property
// bindings.
//
// Values are addressed by dotted paths with bracket indices
// ("user.items[2].name"). Resolution never creates nodes implicitly;
// structure is built with EnsurePath and then written with Set:
//
//	s := state.NewStore()
//	s.EnsurePath("user.name")
//	s.Observe("user.name", func(path string, v state.Value) {
//		fmt.Println("changed:", v)
//	})
//	s.Set("user.name", state.StringValue("Alice"))
//
// Observers fire synchronously in registration order. A write issued
// from inside an observer is deferred until the current notification
// finishes, and a cascade that does not settle within a bounded number
// of rounds fails with a reentrant-write error instead of looping.
//
// The Registry maps state paths to element properties; the runtime
// driver reconciles affected bindings once per frame. SaveSnapshot and
// LoadSnapshot persist the scalar leaves to a bolt database.
package state
