package state_test

import (
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb"
	"github.com/kryonlabs/kryon-sub009/state"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := state.NewStore()
	if err := s.EnsurePath("user.name"); err != nil {
		t.Fatal(err)
	}

	if err := s.Set("user.name", state.StringValue("Alice")); err != nil {
		t.Fatal(err)
	}
	v, ok := s.Get("user.name")
	if !ok || v.Str != "Alice" {
		t.Errorf("get: %v %v", v, ok)
	}

	// Value types may change on rewrite.
	if err := s.Set("user.name", state.IntValue(7)); err != nil {
		t.Fatal(err)
	}
	v, _ = s.Get("user.name")
	if v.Kind != state.KindInt || v.Int != 7 {
		t.Errorf("after rewrite: %v", v)
	}
}

func TestNoAutoVivification(t *testing.T) {
	s := state.NewStore()

	err := s.Set("missing.path", state.IntValue(1))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseState, Kind: errors.KindNotFound}) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, ok := s.Get("missing.path"); ok {
		t.Error("failed set created the path")
	}
	if s.Has("missing") {
		t.Error("failed set created an intermediate node")
	}
}

func TestArrayPaths(t *testing.T) {
	s := state.NewStore()
	if err := s.EnsurePath("items[2].label"); err != nil {
		t.Fatal(err)
	}

	// Slots 0 and 1 were null-padded into existence.
	if !s.Has("items[0]") || !s.Has("items[1]") {
		t.Error("padding slots missing")
	}

	if err := s.Set("items[2].label", state.StringValue("third")); err != nil {
		t.Fatal(err)
	}
	// Bare integer segments resolve as indices too.
	v, ok := s.Get("items.2.label")
	if !ok || v.Str != "third" {
		t.Errorf("loose index form: %v %v", v, ok)
	}

	if _, ok := s.Get("items[9]"); ok {
		t.Error("out-of-range index resolved")
	}
}

func TestBadPaths(t *testing.T) {
	s := state.NewStore()
	for _, path := range []string{"", ".", "a..b", "a[x]", "a[-1]", "a[1"} {
		if err := s.EnsurePath(path); err == nil {
			t.Errorf("EnsurePath(%q): expected error", path)
		}
	}
}

func TestObserverOrderAndPayload(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("counter")

	var calls []string
	s.Observe("counter", func(path string, v state.Value) {
		calls = append(calls, "first:"+v.String())
	})
	s.Observe("counter", func(path string, v state.Value) {
		calls = append(calls, "second:"+v.String())
	})

	if err := s.Set("counter", state.IntValue(1)); err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 || calls[0] != "first:1" || calls[1] != "second:1" {
		t.Errorf("observer calls: %v", calls)
	}
}

func TestObserveExactlyOnce(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("user.name")

	count := 0
	var got state.Value
	s.Observe("user.name", func(path string, v state.Value) {
		count++
		got = v
	})

	s.Set("user.name", state.StringValue("Alice"))
	if count != 1 || got.Str != "Alice" {
		t.Errorf("observer: count=%d value=%v", count, got)
	}
}

func TestUnobserve(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("x")

	count := 0
	h, err := s.Observe("x", func(string, state.Value) { count++ })
	if err != nil {
		t.Fatal(err)
	}
	s.Set("x", state.IntValue(1))
	if err := s.Unobserve(h); err != nil {
		t.Fatal(err)
	}
	s.Set("x", state.IntValue(2))
	if count != 1 {
		t.Errorf("observer fired %d times, want 1", count)
	}

	if err := s.Unobserve(h); err == nil {
		t.Error("expected error for repeated unobserve")
	}
}

func TestWriteDuringNotifyDeferred(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("a")
	s.EnsurePath("b")

	var during state.Value
	var hasDuring bool
	s.Observe("a", func(path string, v state.Value) {
		// The write lands after this notification, so b still holds
		// its old value here.
		s.Set("b", state.IntValue(v.Int*2))
		during, hasDuring = s.Get("b")
	})

	if err := s.Set("a", state.IntValue(21)); err != nil {
		t.Fatal(err)
	}
	if !hasDuring || during.Kind != state.KindNull {
		t.Errorf("deferred write visible during notify: %v", during)
	}
	v, _ := s.Get("b")
	if v.Int != 42 {
		t.Errorf("deferred write not applied after notify: %v", v)
	}
}

func TestUnboundedWriteCascadeRejected(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("ping")
	s.EnsurePath("pong")

	// Two observers that keep writing each other never settle.
	s.Observe("ping", func(path string, v state.Value) {
		s.Set("pong", state.IntValue(v.Int+1))
	})
	s.Observe("pong", func(path string, v state.Value) {
		s.Set("ping", state.IntValue(v.Int+1))
	})

	err := s.Set("ping", state.IntValue(0))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseState, Kind: errors.KindReentrantWrite}) {
		t.Errorf("expected reentrant write error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("user.name")
	s.EnsurePath("user.age")
	s.Set("user.name", state.StringValue("Alice"))

	if err := s.Delete("user.name"); err != nil {
		t.Fatal(err)
	}
	if s.Has("user.name") {
		t.Error("deleted path still resolves")
	}
	if !s.Has("user.age") {
		t.Error("sibling removed")
	}
}

func TestTakeChanged(t *testing.T) {
	s := state.NewStore()
	s.EnsurePath("a")
	s.EnsurePath("b")

	s.Set("a", state.IntValue(1))
	s.Set("b", state.IntValue(2))

	changed := s.TakeChanged()
	if len(changed) != 2 || changed[0] != "a" || changed[1] != "b" {
		t.Errorf("changed: %v", changed)
	}
	if got := s.TakeChanged(); len(got) != 0 {
		t.Errorf("second take not empty: %v", got)
	}
}

func TestRegistryPrefixMatching(t *testing.T) {
	r := state.NewRegistry()
	tr := element.NewTree()
	h, _ := tr.Create(krb.ElementText, element.Handle{})

	r.Register(state.Binding{Element: h, Property: "text", Path: "user.name"})
	r.Register(state.Binding{Element: h, Property: "opacity", Path: "username"})

	// Exact match.
	if got := r.Affected("user.name"); len(got) != 1 || got[0].Property != "text" {
		t.Errorf("exact: %v", got)
	}
	// Bound path is a segment prefix of the write.
	if got := r.Affected("user.name.first"); len(got) != 1 {
		t.Errorf("prefix: %v", got)
	}
	// Write above the binding affects it too.
	if got := r.Affected("user"); len(got) != 1 {
		t.Errorf("subtree: %v", got)
	}
	// "user" must not match "username".
	for _, b := range r.Affected("user") {
		if b.Path == "username" {
			t.Error("string prefix matched across a segment boundary")
		}
	}

	r.Unregister(h)
	if r.Len() != 0 {
		t.Errorf("registry not empty after unregister: %d", r.Len())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.db")

	s := state.NewStore()
	s.EnsurePath("user.name")
	s.EnsurePath("user.age")
	s.EnsurePath("items[1]")
	s.Set("user.name", state.StringValue("Alice"))
	s.Set("user.age", state.IntValue(30))
	s.Set("items[0]", state.BoolValue(true))
	s.Set("items[1]", state.FloatValue(1.5))

	if err := s.SaveSnapshot(file); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := state.NewStore()
	if err := restored.LoadSnapshot(file); err != nil {
		t.Fatalf("load: %v", err)
	}

	checks := []struct {
		path string
		want state.Value
	}{
		{"user.name", state.StringValue("Alice")},
		{"user.age", state.IntValue(30)},
		{"items[0]", state.BoolValue(true)},
		{"items[1]", state.FloatValue(1.5)},
	}
	for _, c := range checks {
		v, ok := restored.Get(c.path)
		if !ok || v != c.want {
			t.Errorf("%s: got %v %v, want %v", c.path, v, ok, c.want)
		}
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	s := state.NewStore()
	err := s.LoadSnapshot(filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Error("expected error for missing snapshot")
	}
}
