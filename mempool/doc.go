// Package mempool provides the pooled chunk allocator backing element,
// property, and state storage.
//
// Small allocations are served from fixed-size class pools with free
// lists; requests above the largest class are tracked individually.
// Every allocation is addressed by a generation-checked Ref handle, so
// a stale or double-freed handle is a reported error rather than a
// silent aliasing bug:
//
//	a := mempool.New(nil)
//	ref, err := a.Alloc(48)
//	if err != nil {
//		return err
//	}
//	buf, _ := a.Bytes(ref)
//	copy(buf, payload)
//	a.Free(ref)
//
// The allocator is confined to the driver goroutine by default; set
// Config.ThreadSafe for mutex-guarded access from background work.
package mempool
