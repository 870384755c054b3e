package state

import (
	"github.com/kryonlabs/kryon-sub009/element"
)

// Binding ties a state path to one element property. A write under the
// path marks the binding for reconciliation on the next frame.
type Binding struct {
	Element  element.Handle
	Property string
	Path     string
}

// Registry is the set of live property bindings. The driver seeds it
// from the tree after a bundle loads and queries it with the changed
// paths of each frame.
type Registry struct {
	bindings []Binding
}

// NewRegistry creates an empty binding registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a binding. Order is preserved; reconciliation applies
// bindings in registration order.
func (r *Registry) Register(b Binding) {
	r.bindings = append(r.bindings, b)
}

// Unregister drops every binding for the given element, for teardown
// when the element is destroyed.
func (r *Registry) Unregister(h element.Handle) {
	kept := r.bindings[:0]
	for _, b := range r.bindings {
		if b.Element != h {
			kept = append(kept, b)
		}
	}
	r.bindings = kept
}

// Affected returns the bindings reached by a write at path: those
// whose bound path equals the written path or is a whole-segment
// prefix of it, plus those under a written subtree.
func (r *Registry) Affected(path string) []Binding {
	var out []Binding
	for _, b := range r.bindings {
		if pathPrefixes(b.Path, path) || pathPrefixes(path, b.Path) {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the number of registered bindings.
func (r *Registry) Len() int {
	return len(r.bindings)
}
