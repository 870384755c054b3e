package element

import (
	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb"
)

// Tree is the live element document. Nodes live in an arena addressed
// by generation-checked handles; parent/child relationships are index
// links.
//
// A Tree is confined to the driver goroutine. It is not safe for
// concurrent use.
type Tree struct {
	nodes []node
	free  []uint32
	roots []int32

	byStringID  map[string]uint32 // "id" property -> node index
	byElementID map[uint32]uint32 // bundle element id -> node index

	liveCount int
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{
		nodes:       make([]node, 0, 64),
		byStringID:  make(map[string]uint32),
		byElementID: make(map[uint32]uint32),
	}
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	return t.liveCount
}

// Create adds a node of the given type under parent. A zero parent
// handle creates a root. The node starts in the created state and
// must be mounted before the first frame renders it.
func (t *Tree) Create(typ krb.ElementType, parent Handle) (Handle, error) {
	parentIdx := int32(none)
	if parent.Valid() {
		p, err := t.lookup(parent)
		if err != nil {
			return Handle{}, err
		}
		if !p.state.mutable() {
			return Handle{}, errors.Lifecycle("cannot add child to %s parent", p.state)
		}
		parentIdx = int32(parent.index)
	}

	idx, gen := t.alloc()
	n := &t.nodes[idx]
	*n = node{
		typ:        typ,
		parent:     parentIdx,
		firstChild: none,
		lastChild:  none,
		nextSib:    none,
		prevSib:    none,
		props:      make(map[string]*property),
		gen:        gen,
		live:       true,
		visible:    true,
		enabled:    true,
	}
	t.liveCount++

	if parentIdx != none {
		t.linkChild(parentIdx, int32(idx))
	} else {
		t.roots = append(t.roots, int32(idx))
	}
	return Handle{index: idx, gen: gen}, nil
}

func (t *Tree) alloc() (uint32, uint32) {
	if len(t.free) > 0 {
		idx := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		return idx, t.nodes[idx].gen + 1
	}
	t.nodes = append(t.nodes, node{})
	return uint32(len(t.nodes) - 1), 1
}

func (t *Tree) linkChild(parent, child int32) {
	p := &t.nodes[parent]
	c := &t.nodes[child]
	c.prevSib = p.lastChild
	if p.lastChild != none {
		t.nodes[p.lastChild].nextSib = child
	} else {
		p.firstChild = child
	}
	p.lastChild = child
}

func (t *Tree) unlinkChild(child int32) {
	c := &t.nodes[child]
	if c.prevSib != none {
		t.nodes[c.prevSib].nextSib = c.nextSib
	}
	if c.nextSib != none {
		t.nodes[c.nextSib].prevSib = c.prevSib
	}
	if c.parent != none {
		p := &t.nodes[c.parent]
		if p.firstChild == child {
			p.firstChild = c.nextSib
		}
		if p.lastChild == child {
			p.lastChild = c.prevSib
		}
	} else {
		for i, r := range t.roots {
			if r == child {
				t.roots = append(t.roots[:i], t.roots[i+1:]...)
				break
			}
		}
	}
	c.parent, c.nextSib, c.prevSib = none, none, none
}

// Mount transitions the subtree at h through mounting into mounted,
// parent before children. Mounting anything but a created node is a
// lifecycle error.
func (t *Tree) Mount(h Handle) error {
	n, err := t.lookup(h)
	if err != nil {
		return err
	}
	if n.state != StateCreated {
		return errors.Lifecycle("cannot mount %s node", n.state)
	}
	t.mount(int32(h.index))
	return nil
}

func (t *Tree) mount(idx int32) {
	n := &t.nodes[idx]
	n.state = StateMounting
	n.state = StateMounted
	n.needsLayout = true
	n.needsRender = true
	for c := n.firstChild; c != none; c = t.nodes[c].nextSib {
		if t.nodes[c].state == StateCreated {
			t.mount(c)
		}
	}
}

// Destroy tears down the subtree at h depth-first: every descendant
// passes through unmounting and unmounted before its storage is
// reclaimed, and the parent's child links no longer reference h.
func (t *Tree) Destroy(h Handle) error {
	n, err := t.lookup(h)
	if err != nil {
		return err
	}
	if n.state == StateUnmounting || n.state == StateUnmounted {
		return errors.Lifecycle("node already unmounting")
	}

	idx := int32(h.index)
	t.unlinkChild(idx)
	t.destroy(idx)
	return nil
}

func (t *Tree) destroy(idx int32) {
	n := &t.nodes[idx]
	n.state = StateUnmounting

	for c := n.firstChild; c != none; {
		next := t.nodes[c].nextSib
		t.destroy(c)
		c = next
	}

	n.state = StateUnmounted
	n.state = StateDestroyed

	if id, ok := n.props["id"]; ok && id.value.Kind == KindString {
		delete(t.byStringID, id.value.Str)
	}
	if n.id != 0 {
		delete(t.byElementID, n.id)
	}

	n.live = false
	n.props = nil
	n.firstChild, n.lastChild = none, none
	t.free = append(t.free, uint32(idx))
	t.liveCount--
}

// FindByID resolves a user-assigned string id ("id" property) to a
// handle.
func (t *Tree) FindByID(id string) (Handle, bool) {
	idx, ok := t.byStringID[id]
	if !ok {
		return Handle{}, false
	}
	return Handle{index: idx, gen: t.nodes[idx].gen}, true
}

// ByElementID resolves a bundle element id to a handle.
func (t *Tree) ByElementID(id uint32) (Handle, bool) {
	idx, ok := t.byElementID[id]
	if !ok {
		return Handle{}, false
	}
	return Handle{index: idx, gen: t.nodes[idx].gen}, true
}

// SetProperty stores a static value. Unknown names and mismatched
// value kinds are reported, not silently absorbed; the node is left
// unchanged on any error.
func (t *Tree) SetProperty(h Handle, name string, v Value) error {
	n, err := t.lookup(h)
	if err != nil {
		return err
	}
	if !n.state.mutable() {
		return errors.Lifecycle("cannot set %q on %s node", name, n.state)
	}

	spec, ok := schema[name]
	if !ok {
		err := errors.NotFound(errors.PhaseTree, "property", name)
		Logger().Warn("unknown property name",
			zap.String("name", name),
			zap.String("element", n.typ.String()))
		return err
	}
	if v.Kind != spec.kind {
		return errors.TypeMismatch(errors.PhaseTree, []string{name}, v.Kind.String(), spec.kind.String())
	}

	if n.state == StateMounted {
		n.state = StateUpdating
		defer func() { n.state = StateMounted }()
	}

	t.applyValue(h.index, n, name, v)

	p, ok := n.props[name]
	if !ok {
		p = &property{}
		n.props[name] = p
	}
	p.value = v

	t.invalidate(int32(h.index), spec.layout)
	return nil
}

// applyValue updates the node fields shadowing well-known properties.
func (t *Tree) applyValue(idx uint32, n *node, name string, v Value) {
	switch name {
	case "id":
		if old, ok := n.props["id"]; ok && old.value.Kind == KindString {
			delete(t.byStringID, old.value.Str)
		}
		t.byStringID[v.Str] = idx
	case "width":
		n.fixedW = true
		n.box.W = v.Float
	case "height":
		n.fixedH = true
		n.box.H = v.Float
	case "x":
		n.box.X = v.Float
	case "y":
		n.box.Y = v.Float
	case "size":
		n.fixedW, n.fixedH = true, true
		n.box.W, n.box.H = v.Vec[0], v.Vec[1]
	case "position":
		n.box.X, n.box.Y = v.Vec[0], v.Vec[1]
	case "margin":
		n.box.Margin = v.Vec
	case "padding":
		n.box.Padding = v.Vec
	case "visible":
		n.visible = v.Bool
	case "enabled":
		n.enabled = v.Bool
	}
}

// GetProperty returns the stored value for name. The second result is
// false when the property was never set, which is distinct from any
// valid value.
func (t *Tree) GetProperty(h Handle, name string) (Value, bool) {
	n, err := t.lookup(h)
	if err != nil {
		return Value{}, false
	}
	p, ok := n.props[name]
	if !ok {
		return Value{}, false
	}
	return p.value, true
}

// BindProperty attaches a state path to a property. The value is not
// evaluated here; reconciliation applies it once per frame through
// ApplyBound.
func (t *Tree) BindProperty(h Handle, name, path string) error {
	n, err := t.lookup(h)
	if err != nil {
		return err
	}
	if !n.state.mutable() {
		return errors.Lifecycle("cannot bind %q on %s node", name, n.state)
	}
	if _, ok := schema[name]; !ok {
		return errors.NotFound(errors.PhaseTree, "property", name)
	}

	p, ok := n.props[name]
	if !ok {
		p = &property{}
		n.props[name] = p
	}
	p.binding = path
	p.hasLast = false
	return nil
}

// Binding returns the state path bound to a property, if any.
func (t *Tree) Binding(h Handle, name string) (string, bool) {
	n, err := t.lookup(h)
	if err != nil {
		return "", false
	}
	p, ok := n.props[name]
	if !ok || p.binding == "" {
		return "", false
	}
	return p.binding, true
}

// EachBinding calls fn for every bound property in the tree. Used to
// seed the binding registry after a bundle loads.
func (t *Tree) EachBinding(fn func(h Handle, name, path string)) {
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.live {
			continue
		}
		for name, p := range n.props {
			if p.binding != "" {
				fn(Handle{index: uint32(i), gen: n.gen}, name, p.binding)
			}
		}
	}
}

// ApplyBound writes a reconciled value into a bound property. Returns
// true when the value changed since the last reconciliation; unchanged
// values cost no dirty flags.
func (t *Tree) ApplyBound(h Handle, name string, v Value) (bool, error) {
	n, err := t.lookup(h)
	if err != nil {
		return false, err
	}
	if !n.state.mutable() {
		return false, errors.Lifecycle("cannot reconcile %q on %s node", name, n.state)
	}
	p, ok := n.props[name]
	if !ok || p.binding == "" {
		return false, errors.NotFound(errors.PhaseTree, "binding", name)
	}
	if p.hasLast && p.last == v {
		return false, nil
	}
	p.value = v
	p.last = v
	p.hasLast = true

	t.applyValue(h.index, n, name, v)
	t.invalidate(int32(h.index), schema[name].layout)
	return true, nil
}

// InvalidateLayout marks h as needing layout and propagates upward to
// every ancestor whose size depends on its children, stopping at the
// first fixed-size ancestor.
func (t *Tree) InvalidateLayout(h Handle) error {
	if _, err := t.lookup(h); err != nil {
		return err
	}
	t.invalidate(int32(h.index), true)
	return nil
}

// InvalidateRender marks h as needing a repaint.
func (t *Tree) InvalidateRender(h Handle) error {
	n, err := t.lookup(h)
	if err != nil {
		return err
	}
	n.needsRender = true
	return nil
}

func (t *Tree) invalidate(idx int32, layout bool) {
	n := &t.nodes[idx]
	n.needsRender = true
	if !layout {
		return
	}
	n.needsLayout = true

	// An auto-sized ancestor must re-measure when a descendant's size
	// changes; a fixed-size ancestor does not, and stops the walk.
	for p := n.parent; p != none; p = t.nodes[p].parent {
		pn := &t.nodes[p]
		if pn.fixedSize() {
			break
		}
		if pn.needsLayout {
			break // ancestors above are already marked
		}
		pn.needsLayout = true
		pn.needsRender = true
	}
}

// NeedsLayout reports the node's layout dirty flag.
func (t *Tree) NeedsLayout(h Handle) bool {
	n, err := t.lookup(h)
	return err == nil && n.needsLayout
}

// NeedsRender reports the node's render dirty flag.
func (t *Tree) NeedsRender(h Handle) bool {
	n, err := t.lookup(h)
	return err == nil && n.needsRender
}

// ClearLayout consumes the layout dirty flag. The layout pass calls
// this once per dirty node.
func (t *Tree) ClearLayout(h Handle) {
	if n, err := t.lookup(h); err == nil {
		n.needsLayout = false
	}
}

// ClearRender consumes the render dirty flag.
func (t *Tree) ClearRender(h Handle) {
	if n, err := t.lookup(h); err == nil {
		n.needsRender = false
	}
}

// Live reports whether h addresses a current node. O(1).
func (t *Tree) Live(h Handle) bool {
	_, err := t.lookup(h)
	return err == nil
}

// Parent returns the parent handle, or false for roots.
func (t *Tree) Parent(h Handle) (Handle, bool) {
	n, err := t.lookup(h)
	if err != nil || n.parent == none {
		return Handle{}, false
	}
	return Handle{index: uint32(n.parent), gen: t.nodes[n.parent].gen}, true
}

// Children returns the child handles in paint order.
func (t *Tree) Children(h Handle) []Handle {
	n, err := t.lookup(h)
	if err != nil {
		return nil
	}
	var out []Handle
	for c := n.firstChild; c != none; c = t.nodes[c].nextSib {
		out = append(out, Handle{index: uint32(c), gen: t.nodes[c].gen})
	}
	return out
}

// Roots returns the root handles in creation order.
func (t *Tree) Roots() []Handle {
	out := make([]Handle, 0, len(t.roots))
	for _, r := range t.roots {
		out = append(out, Handle{index: uint32(r), gen: t.nodes[r].gen})
	}
	return out
}

// Type returns the element type tag.
func (t *Tree) Type(h Handle) krb.ElementType {
	n, err := t.lookup(h)
	if err != nil {
		return 0
	}
	return n.typ
}

// Name returns the element's bundle name, if any.
func (t *Tree) Name(h Handle) string {
	n, err := t.lookup(h)
	if err != nil {
		return ""
	}
	return n.name
}

// State returns the node's lifecycle state. Destroyed handles report
// the destroyed state.
func (t *Tree) State(h Handle) LifecycleState {
	if !h.Valid() || int(h.index) >= len(t.nodes) {
		return StateDestroyed
	}
	n := &t.nodes[h.index]
	if !n.live || n.gen != h.gen {
		return StateDestroyed
	}
	return n.state
}

// Box returns the node's layout geometry.
func (t *Tree) Box(h Handle) Box {
	n, err := t.lookup(h)
	if err != nil {
		return Box{}
	}
	return n.box
}

// SetBox writes layout results. Reserved for the layout pass; it does
// not set dirty flags.
func (t *Tree) SetBox(h Handle, b Box) {
	if n, err := t.lookup(h); err == nil {
		n.box = b
	}
}

// Visible reports the node's visibility flag.
func (t *Tree) Visible(h Handle) bool {
	n, err := t.lookup(h)
	return err == nil && n.visible
}

// Enabled reports the node's enabled flag.
func (t *Tree) Enabled(h Handle) bool {
	n, err := t.lookup(h)
	return err == nil && n.enabled
}

// PaintOrder walks every mounted node, parent before children and
// siblings in child order. fn returning false stops the walk.
func (t *Tree) PaintOrder(fn func(Handle) bool) {
	for _, r := range t.roots {
		if !t.paint(r, fn) {
			return
		}
	}
}

func (t *Tree) paint(idx int32, fn func(Handle) bool) bool {
	n := &t.nodes[idx]
	if !fn(Handle{index: uint32(idx), gen: n.gen}) {
		return false
	}
	for c := n.firstChild; c != none; c = t.nodes[c].nextSib {
		if !t.paint(c, fn) {
			return false
		}
	}
	return true
}

// PathToRoot returns the chain of handles from h up to its root,
// target first. The dispatcher derives capture and bubble orders from
// it.
func (t *Tree) PathToRoot(h Handle) []Handle {
	n, err := t.lookup(h)
	if err != nil {
		return nil
	}
	out := []Handle{h}
	for p := n.parent; p != none; p = t.nodes[p].parent {
		out = append(out, Handle{index: uint32(p), gen: t.nodes[p].gen})
	}
	return out
}

func (t *Tree) lookup(h Handle) (*node, error) {
	if !h.Valid() || int(h.index) >= len(t.nodes) {
		return nil, errors.InvalidHandle(errors.PhaseTree, h.index)
	}
	n := &t.nodes[h.index]
	if !n.live || n.gen != h.gen {
		return nil, errors.InvalidHandle(errors.PhaseTree, h.index)
	}
	return n, nil
}
