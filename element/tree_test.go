package element_test

import (
	stderrors "errors"
	"testing"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb"
)

func mustCreate(t *testing.T, tr *element.Tree, typ krb.ElementType, parent element.Handle) element.Handle {
	t.Helper()
	h, err := tr.Create(typ, parent)
	if err != nil {
		t.Fatalf("create %s: %v", typ, err)
	}
	return h
}

func TestCreateAndMount(t *testing.T) {
	tr := element.NewTree()
	root := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	child := mustCreate(t, tr, krb.ElementText, root)

	if got := tr.State(root); got != element.StateCreated {
		t.Errorf("state before mount: %s", got)
	}

	if err := tr.Mount(root); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if got := tr.State(root); got != element.StateMounted {
		t.Errorf("root state: %s", got)
	}
	if got := tr.State(child); got != element.StateMounted {
		t.Errorf("child state: %s", got)
	}

	// Mounting twice is a lifecycle error.
	err := tr.Mount(root)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTree, Kind: errors.KindLifecycle}) {
		t.Errorf("expected lifecycle error, got %v", err)
	}
}

func TestDestroyRecursive(t *testing.T) {
	tr := element.NewTree()
	root := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	a := mustCreate(t, tr, krb.ElementContainer, root)
	b := mustCreate(t, tr, krb.ElementText, a)
	c := mustCreate(t, tr, krb.ElementText, a)
	keep := mustCreate(t, tr, krb.ElementText, root)
	tr.Mount(root)

	if tr.Len() != 5 {
		t.Fatalf("len: got %d, want 5", tr.Len())
	}

	// Destroying a marks a, b, c destroyed and removes a from root's
	// children; keep survives.
	if err := tr.Destroy(a); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	for _, h := range []element.Handle{a, b, c} {
		if tr.Live(h) {
			t.Error("destroyed node still live")
		}
		if got := tr.State(h); got != element.StateDestroyed {
			t.Errorf("state: got %s, want destroyed", got)
		}
	}
	if tr.Len() != 2 {
		t.Errorf("len after destroy: got %d, want 2", tr.Len())
	}

	children := tr.Children(root)
	if len(children) != 1 || children[0] != keep {
		t.Errorf("root children after destroy: %v", children)
	}
}

func TestDestroyedHandleRejected(t *testing.T) {
	tr := element.NewTree()
	root := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	h := mustCreate(t, tr, krb.ElementText, root)
	tr.Mount(root)
	tr.Destroy(h)

	err := tr.SetProperty(h, "text", element.StringValue("x"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTree, Kind: errors.KindInvalidHandle}) {
		t.Errorf("expected invalid handle error, got %v", err)
	}
	if _, err := tr.Create(krb.ElementText, h); err == nil {
		t.Error("expected error creating under destroyed parent")
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	tr := element.NewTree()
	root := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	old := mustCreate(t, tr, krb.ElementText, root)
	tr.Destroy(old)

	// The freed slot is recycled under a new generation.
	fresh := mustCreate(t, tr, krb.ElementButton, root)
	if tr.Live(old) {
		t.Error("stale handle reports live after slot reuse")
	}
	if !tr.Live(fresh) {
		t.Error("fresh handle not live")
	}
}

func TestSetPropertyValidation(t *testing.T) {
	tr := element.NewTree()
	h := mustCreate(t, tr, krb.ElementText, element.Handle{})
	tr.Mount(h)

	if err := tr.SetProperty(h, "text", element.StringValue("hello")); err != nil {
		t.Fatalf("set text: %v", err)
	}
	v, ok := tr.GetProperty(h, "text")
	if !ok || v.Str != "hello" {
		t.Errorf("get text: %v %v", v, ok)
	}

	err := tr.SetProperty(h, "no_such_property", element.IntValue(1))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTree, Kind: errors.KindNotFound}) {
		t.Errorf("expected not found, got %v", err)
	}

	err = tr.SetProperty(h, "width", element.StringValue("wide"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseTree, Kind: errors.KindTypeMismatch}) {
		t.Errorf("expected type mismatch, got %v", err)
	}
	if _, ok := tr.GetProperty(h, "width"); ok {
		t.Error("failed set still stored a value")
	}

	// Absent property is distinct from any valid value.
	if _, ok := tr.GetProperty(h, "opacity"); ok {
		t.Error("unset property reported present")
	}
}

func TestFindByID(t *testing.T) {
	tr := element.NewTree()
	h := mustCreate(t, tr, krb.ElementButton, element.Handle{})
	tr.Mount(h)
	tr.SetProperty(h, "id", element.StringValue("submit"))

	got, ok := tr.FindByID("submit")
	if !ok || got != h {
		t.Fatalf("find: %v %v", got, ok)
	}

	// Re-assigning the id releases the old key.
	tr.SetProperty(h, "id", element.StringValue("confirm"))
	if _, ok := tr.FindByID("submit"); ok {
		t.Error("old id still resolves")
	}
	if _, ok := tr.FindByID("confirm"); !ok {
		t.Error("new id does not resolve")
	}

	tr.Destroy(h)
	if _, ok := tr.FindByID("confirm"); ok {
		t.Error("destroyed node still findable by id")
	}
}

func TestLayoutInvalidationPropagation(t *testing.T) {
	tr := element.NewTree()
	a := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	b := mustCreate(t, tr, krb.ElementText, a)
	c := mustCreate(t, tr, krb.ElementText, a)
	tr.Mount(a)

	// C is fixed-size; its layout cannot depend on children.
	tr.SetProperty(c, "width", element.FloatValue(100))
	tr.SetProperty(c, "height", element.FloatValue(40))

	// Settle all flags from mounting and the sets above.
	for _, h := range []element.Handle{a, b, c} {
		tr.ClearLayout(h)
		tr.ClearRender(h)
	}

	tr.SetProperty(b, "width", element.FloatValue(50))
	if !tr.NeedsLayout(b) {
		t.Error("b should need layout")
	}
	if !tr.NeedsLayout(a) {
		t.Error("auto-sized parent a should need layout")
	}
	if tr.NeedsLayout(c) {
		t.Error("fixed-size sibling c should not need layout")
	}
}

func TestInvalidationStopsAtFixedAncestor(t *testing.T) {
	tr := element.NewTree()
	grand := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	fixed := mustCreate(t, tr, krb.ElementContainer, grand)
	leaf := mustCreate(t, tr, krb.ElementText, fixed)
	tr.Mount(grand)

	tr.SetProperty(fixed, "width", element.FloatValue(200))
	tr.SetProperty(fixed, "height", element.FloatValue(200))
	for _, h := range []element.Handle{grand, fixed, leaf} {
		tr.ClearLayout(h)
		tr.ClearRender(h)
	}

	tr.InvalidateLayout(leaf)
	if !tr.NeedsLayout(leaf) {
		t.Error("leaf should need layout")
	}
	// The fixed container absorbs the change; nothing above re-lays.
	if tr.NeedsLayout(fixed) {
		t.Error("fixed ancestor should not need layout")
	}
	if tr.NeedsLayout(grand) {
		t.Error("grandparent above fixed ancestor should not need layout")
	}
}

func TestRenderOnlyPropertySkipsLayout(t *testing.T) {
	tr := element.NewTree()
	h := mustCreate(t, tr, krb.ElementText, element.Handle{})
	tr.Mount(h)
	tr.ClearLayout(h)
	tr.ClearRender(h)

	tr.SetProperty(h, "color", element.ColorValue(0xFF0000FF))
	if tr.NeedsLayout(h) {
		t.Error("color change should not need layout")
	}
	if !tr.NeedsRender(h) {
		t.Error("color change should need render")
	}
}

func TestBoundPropertyDeferred(t *testing.T) {
	tr := element.NewTree()
	h := mustCreate(t, tr, krb.ElementText, element.Handle{})
	tr.Mount(h)

	if err := tr.BindProperty(h, "text", "user.name"); err != nil {
		t.Fatal(err)
	}

	// Binding alone evaluates nothing.
	if v, ok := tr.GetProperty(h, "text"); ok && v.Kind != element.KindInvalid {
		t.Errorf("bound property evaluated at bind time: %v", v)
	}

	path, ok := tr.Binding(h, "text")
	if !ok || path != "user.name" {
		t.Errorf("binding: %q %v", path, ok)
	}

	changed, err := tr.ApplyBound(h, "text", element.StringValue("Alice"))
	if err != nil || !changed {
		t.Fatalf("apply: changed=%v err=%v", changed, err)
	}
	if v, _ := tr.GetProperty(h, "text"); v.Str != "Alice" {
		t.Errorf("value after apply: %v", v)
	}

	// The same value again is a no-op.
	changed, err = tr.ApplyBound(h, "text", element.StringValue("Alice"))
	if err != nil || changed {
		t.Errorf("identical apply: changed=%v err=%v", changed, err)
	}
}

func TestPaintOrder(t *testing.T) {
	tr := element.NewTree()
	root := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	a := mustCreate(t, tr, krb.ElementContainer, root)
	a1 := mustCreate(t, tr, krb.ElementText, a)
	b := mustCreate(t, tr, krb.ElementText, root)
	tr.Mount(root)

	var order []element.Handle
	tr.PaintOrder(func(h element.Handle) bool {
		order = append(order, h)
		return true
	})

	want := []element.Handle{root, a, a1, b}
	if len(order) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: got %v, want %v", i, order[i], want[i])
		}
	}
}

func TestPathToRoot(t *testing.T) {
	tr := element.NewTree()
	root := mustCreate(t, tr, krb.ElementContainer, element.Handle{})
	mid := mustCreate(t, tr, krb.ElementContainer, root)
	leaf := mustCreate(t, tr, krb.ElementButton, mid)
	tr.Mount(root)

	path := tr.PathToRoot(leaf)
	want := []element.Handle{leaf, mid, root}
	if len(path) != 3 {
		t.Fatalf("path length: got %d, want 3", len(path))
	}
	for i := range want {
		if path[i] != want[i] {
			t.Errorf("position %d: got %v, want %v", i, path[i], want[i])
		}
	}
}

func TestFromBundle(t *testing.T) {
	b := krb.New()
	idName := b.AddString("unused")
	textProp := b.AddString("text")
	widthProp := b.AddString("width")
	boundProp := b.AddString("value")
	_ = idName

	b.AddElement(krb.Element{
		ID:       1,
		Type:     krb.ElementContainer,
		ChildIDs: []uint32{2},
	})
	b.AddElement(krb.Element{
		ID:       2,
		Type:     krb.ElementInput,
		ParentID: 1,
		Properties: []krb.Property{
			{NameIndex: textProp, Type: krb.PropertyString, Str: "name:"},
			{NameIndex: widthProp, Type: krb.PropertyFloat, Float: 120},
			{NameIndex: boundProp, Type: krb.PropertyString, Flags: krb.PropFlagBound, Str: "form.name"},
		},
	})

	tr, err := element.FromBundle(b)
	if err != nil {
		t.Fatalf("FromBundle: %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("len: got %d, want 2", tr.Len())
	}

	input, ok := tr.ByElementID(2)
	if !ok {
		t.Fatal("element 2 not resolvable")
	}
	if got := tr.State(input); got != element.StateMounted {
		t.Errorf("state: %s", got)
	}
	if v, _ := tr.GetProperty(input, "text"); v.Str != "name:" {
		t.Errorf("text: %v", v)
	}
	if path, ok := tr.Binding(input, "value"); !ok || path != "form.name" {
		t.Errorf("binding: %q %v", path, ok)
	}

	var boundCount int
	tr.EachBinding(func(h element.Handle, name, path string) {
		boundCount++
		if h != input || name != "value" || path != "form.name" {
			t.Errorf("binding enumeration: %v %q %q", h, name, path)
		}
	})
	if boundCount != 1 {
		t.Errorf("bindings enumerated: %d", boundCount)
	}
}
