package state

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
)

// maxDrainRounds bounds how many times deferred writes may cascade
// before the store gives up on settling. A cycle of observers writing
// paths that re-trigger each other hits this cap instead of spinning.
const maxDrainRounds = 64

// ObserverFunc receives the changed path and its new value.
type ObserverFunc func(path string, v Value)

// ObserverHandle identifies a registered observer. The zero handle is
// invalid.
type ObserverHandle uint64

type observer struct {
	handle ObserverHandle
	fn     ObserverFunc
}

// node is one entry of the state tree. Arrays and objects own their
// children; destroying a node destroys the subtree.
type node struct {
	kind   Kind
	value  Value
	arr    []*node
	obj    map[string]*node
	keys   []string // object key insertion order, for deterministic walks
	parent *node

	observers []observer
}

type deferredWrite struct {
	path  string
	value Value
}

// Store is the reactive state tree. Writes notify the target node's
// observers synchronously in registration order; writes issued from
// inside an observer are queued and applied after the current
// notification completes.
//
// A Store is confined to the driver goroutine. It is not safe for
// concurrent use.
type Store struct {
	root       *node
	observers  map[ObserverHandle]*node
	nextHandle ObserverHandle

	notifying bool
	deferred  []deferredWrite
	changed   []string
}

// NewStore creates an empty store with an object root.
func NewStore() *Store {
	return &Store{
		root:      newObject(nil),
		observers: make(map[ObserverHandle]*node),
	}
}

func newObject(parent *node) *node {
	return &node{kind: KindObject, obj: make(map[string]*node), parent: parent}
}

// Set writes a scalar value at path. The path must already resolve;
// missing intermediate nodes are an error, not implicitly created (use
// EnsurePath to build structure first). Observers on the target node
// fire before Set returns, except for writes issued during
// notification, which are deferred to keep observer recursion bounded.
func (s *Store) Set(path string, v Value) error {
	if v.Kind == KindArray || v.Kind == KindObject {
		return errors.InvalidInput(errors.PhaseState,
			"structural values are built with EnsurePath, not Set")
	}

	if s.notifying {
		s.deferred = append(s.deferred, deferredWrite{path: path, value: v})
		return nil
	}

	if err := s.apply(path, v); err != nil {
		return err
	}
	return s.drain()
}

func (s *Store) apply(path string, v Value) error {
	n, err := s.resolve(path)
	if err != nil {
		return err
	}
	if n.kind == KindArray || n.kind == KindObject {
		return errors.TypeMismatch(errors.PhaseState, []string{path}, "scalar", n.kind.String())
	}

	n.kind = v.Kind
	n.value = v
	s.changed = append(s.changed, path)

	s.notifying = true
	for _, o := range n.observers {
		o.fn(path, v)
	}
	s.notifying = false
	return nil
}

func (s *Store) drain() error {
	for round := 0; len(s.deferred) > 0; round++ {
		if round >= maxDrainRounds {
			path := s.deferred[0].path
			s.deferred = nil
			return errors.ReentrantWrite(path)
		}
		batch := s.deferred
		s.deferred = nil
		for _, w := range batch {
			if err := s.apply(w.path, w.value); err != nil {
				Logger().Warn("deferred state write failed",
					zap.String("path", w.path),
					zap.Error(err))
			}
		}
	}
	return nil
}

// Flush applies any writes still deferred from observer callbacks.
// The driver calls this once per frame before reconciling bindings.
func (s *Store) Flush() error {
	return s.drain()
}

// Get reads the value at path. The second result is false when the
// path does not resolve.
func (s *Store) Get(path string) (Value, bool) {
	n, err := s.resolve(path)
	if err != nil {
		return Value{}, false
	}
	if n.kind == KindArray {
		return Value{Kind: KindArray}, true
	}
	if n.kind == KindObject {
		return Value{Kind: KindObject}, true
	}
	return n.value, true
}

// Has reports whether path resolves.
func (s *Store) Has(path string) bool {
	_, err := s.resolve(path)
	return err == nil
}

// EnsurePath creates the nodes along path that do not yet exist:
// object nodes for key segments, array slots (null-padded) for index
// segments. The leaf starts as null if created. This is the explicit
// opt-in for building structure; Set never vivifies.
func (s *Store) EnsurePath(path string) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}

	n := s.root
	for _, seg := range segs {
		if seg.isKey {
			// A node created as null promotes to an object when a key
			// segment descends into it.
			if n.kind == KindNull {
				n.kind = KindObject
				n.obj = make(map[string]*node)
			}
			if n.kind != KindObject {
				return errors.TypeMismatch(errors.PhaseState, []string{path}, n.kind.String(), "object")
			}
			child, ok := n.obj[seg.key]
			if !ok {
				child = &node{kind: KindNull, parent: n}
				n.obj[seg.key] = child
				n.keys = append(n.keys, seg.key)
			}
			n = child
		} else {
			if n.kind == KindNull {
				n.kind = KindArray
			}
			if n.kind != KindArray {
				return errors.TypeMismatch(errors.PhaseState, []string{path}, n.kind.String(), "array")
			}
			for len(n.arr) <= seg.index {
				n.arr = append(n.arr, &node{kind: KindNull, parent: n})
			}
			n = n.arr[seg.index]
		}
	}
	return nil
}

// Delete removes the node at path and its subtree. Observers attached
// inside the subtree are dropped.
func (s *Store) Delete(path string) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	n, err := s.walk(segs)
	if err != nil {
		return err
	}

	s.dropObservers(n)
	parent := n.parent
	if parent == nil {
		return errors.InvalidInput(errors.PhaseState, "cannot delete the root")
	}

	last := segs[len(segs)-1]
	if last.isKey {
		delete(parent.obj, last.key)
		for i, k := range parent.keys {
			if k == last.key {
				parent.keys = append(parent.keys[:i], parent.keys[i+1:]...)
				break
			}
		}
	} else {
		// Array slots collapse; trailing indices shift down.
		parent.arr = append(parent.arr[:last.index], parent.arr[last.index+1:]...)
	}
	s.changed = append(s.changed, path)
	return nil
}

func (s *Store) dropObservers(n *node) {
	for _, o := range n.observers {
		delete(s.observers, o.handle)
	}
	n.observers = nil
	for _, c := range n.arr {
		s.dropObservers(c)
	}
	for _, c := range n.obj {
		s.dropObservers(c)
	}
}

// Observe registers fn on the node at path. The path must resolve.
// Observers on one node fire in registration order.
func (s *Store) Observe(path string, fn ObserverFunc) (ObserverHandle, error) {
	n, err := s.resolve(path)
	if err != nil {
		return 0, err
	}

	s.nextHandle++
	h := s.nextHandle
	n.observers = append(n.observers, observer{handle: h, fn: fn})
	s.observers[h] = n
	return h, nil
}

// Unobserve removes a previously registered observer. Unknown handles
// are an error.
func (s *Store) Unobserve(h ObserverHandle) error {
	n, ok := s.observers[h]
	if !ok {
		return errors.NotFound(errors.PhaseState, "observer", fmt.Sprintf("%d", h))
	}
	delete(s.observers, h)
	for i := range n.observers {
		if n.observers[i].handle == h {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			break
		}
	}
	return nil
}

// TakeChanged returns the paths written since the last call and resets
// the list. The driver uses it to reconcile bindings once per frame.
func (s *Store) TakeChanged() []string {
	out := s.changed
	s.changed = nil
	return out
}

func (s *Store) resolve(path string) (*node, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return s.walk(segs)
}

func (s *Store) walk(segs []segment) (*node, error) {
	n := s.root
	for i, seg := range segs {
		if seg.isKey {
			if n.kind != KindObject {
				return nil, errors.NotFound(errors.PhaseState, "state path", joinSegs(segs[:i+1]))
			}
			child, ok := n.obj[seg.key]
			if !ok {
				return nil, errors.NotFound(errors.PhaseState, "state path", joinSegs(segs[:i+1]))
			}
			n = child
		} else {
			if n.kind != KindArray || seg.index >= len(n.arr) {
				return nil, errors.NotFound(errors.PhaseState, "state path", joinSegs(segs[:i+1]))
			}
			n = n.arr[seg.index]
		}
	}
	return n, nil
}

func joinSegs(segs []segment) string {
	out := ""
	for i, seg := range segs {
		if seg.isKey && i > 0 {
			out += "."
		}
		out += seg.String()
	}
	return out
}

// EachLeaf walks every scalar leaf in deterministic order, calling fn
// with its full path. Snapshot persistence is built on this.
func (s *Store) EachLeaf(fn func(path string, v Value)) {
	s.eachLeaf(s.root, "", fn)
}

func (s *Store) eachLeaf(n *node, prefix string, fn func(string, Value)) {
	switch n.kind {
	case KindObject:
		for _, k := range n.keys {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			s.eachLeaf(n.obj[k], p, fn)
		}
	case KindArray:
		for i, c := range n.arr {
			s.eachLeaf(c, fmt.Sprintf("%s[%d]", prefix, i), fn)
		}
	default:
		if prefix != "" {
			fn(prefix, n.value)
		}
	}
}
