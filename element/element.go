package element

import (
	"github.com/kryonlabs/kryon-sub009/krb"
)

// Handle is a stable reference to a tree node. The zero Handle is
// invalid. Handles survive internal storage growth, and a destroyed
// handle can never alias a later node because reuse bumps the
// generation.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether the handle was produced by the tree. It does
// not check liveness.
func (h Handle) Valid() bool {
	return h.gen != 0
}

// LifecycleState tracks where a node is in its mount/unmount cycle.
type LifecycleState uint8

const (
	StateCreated LifecycleState = iota
	StateMounting
	StateMounted
	StateUpdating
	StateUnmounting
	StateUnmounted
	StateDestroyed
)

var stateNames = [...]string{
	StateCreated:    "created",
	StateMounting:   "mounting",
	StateMounted:    "mounted",
	StateUpdating:   "updating",
	StateUnmounting: "unmounting",
	StateUnmounted:  "unmounted",
	StateDestroyed:  "destroyed",
}

func (s LifecycleState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// mutable reports whether property and structural changes are allowed
// in this state. Once a node begins unmounting it is frozen.
func (s LifecycleState) mutable() bool {
	return s <= StateUpdating
}

const none = -1

// Box is a node's layout geometry.
type Box struct {
	X, Y, W, H float64
	Margin     [4]float64
	Padding    [4]float64
}

// property is a node's stored value plus optional state binding.
type property struct {
	value   Value
	binding string // state path; empty for static properties
	last    Value  // last reconciled value for change detection
	hasLast bool
}

// node is the arena slot. Tree links are indices, never pointers, so
// slot reuse and slice growth cannot dangle.
type node struct {
	id    uint32 // bundle element id, 0 for programmatic nodes
	typ   krb.ElementType
	name  string

	parent     int32
	firstChild int32
	lastChild  int32
	nextSib    int32
	prevSib    int32

	state LifecycleState
	props map[string]*property
	box   Box

	gen  uint32
	live bool

	fixedW, fixedH bool
	visible        bool
	enabled        bool
	needsLayout    bool
	needsRender    bool
}

func (n *node) fixedSize() bool {
	return n.fixedW && n.fixedH
}
