package runtime

import (
	"time"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb"
	"github.com/kryonlabs/kryon-sub009/state"
)

// Update advances one frame: drains queued events through the
// dispatcher, applies state writes deferred during notification,
// reconciles changed bindings into element properties, and runs the
// layout pass. Returns true when anything changed, meaning a Render
// call would emit draw intents.
func (r *Runtime) Update(dt time.Duration) (bool, error) {
	if !r.running {
		return false, errors.Lifecycle("update on stopped runtime")
	}

	events := r.dispatcher.ProcessAll()

	if err := r.store.Flush(); err != nil {
		r.record(err)
		return false, err
	}

	applied := r.reconcile()
	laidOut := r.layout()

	r.frames++
	if events > 0 || applied > 0 || laidOut {
		r.logger.Debug("frame",
			zap.Uint64("n", r.frames),
			zap.Duration("dt", dt),
			zap.Int("events", events),
			zap.Int("reconciled", applied))
		return true, nil
	}
	return false, nil
}

// Frames returns the number of completed update cycles.
func (r *Runtime) Frames() uint64 {
	return r.frames
}

// reconcile pushes changed state paths into bound element properties.
// Each binding is applied at most once per frame even when several
// changed paths touch it.
func (r *Runtime) reconcile() int {
	changed := r.store.TakeChanged()
	if len(changed) == 0 || r.bindings == nil {
		return 0
	}

	type key struct {
		h    element.Handle
		prop string
	}
	seen := make(map[key]struct{})
	applied := 0

	for _, path := range changed {
		for _, b := range r.bindings.Affected(path) {
			k := key{b.Element, b.Property}
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			sv, ok := r.store.Get(b.Path)
			if !ok {
				continue
			}
			ev, ok := convertValue(b.Property, sv)
			if !ok {
				r.record(errors.TypeMismatch(errors.PhaseState,
					[]string{b.Path}, sv.Kind.String(), b.Property))
				continue
			}
			wrote, err := r.tree.ApplyBound(b.Element, b.Property, ev)
			if err != nil {
				r.record(err)
				continue
			}
			if wrote {
				applied++
			}
		}
	}
	return applied
}

// convertValue coerces a state value into the kind the target property
// accepts. Structural state nodes never convert.
func convertValue(prop string, v state.Value) (element.Value, bool) {
	kind, ok := element.PropertyKind(prop)
	if !ok {
		return element.Value{}, false
	}

	switch kind {
	case element.KindString:
		switch v.Kind {
		case state.KindString:
			return element.StringValue(v.Str), true
		case state.KindInt, state.KindFloat, state.KindBool:
			return element.StringValue(v.String()), true
		}
	case element.KindInt:
		switch v.Kind {
		case state.KindInt:
			return element.IntValue(v.Int), true
		case state.KindFloat:
			return element.IntValue(int64(v.Float)), true
		}
	case element.KindFloat:
		switch v.Kind {
		case state.KindFloat:
			return element.FloatValue(v.Float), true
		case state.KindInt:
			return element.FloatValue(float64(v.Int)), true
		}
	case element.KindBool:
		if v.Kind == state.KindBool {
			return element.BoolValue(v.Bool), true
		}
	case element.KindColor:
		switch v.Kind {
		case state.KindString:
			c, err := krb.ParseColor(v.Str)
			if err != nil {
				return element.Value{}, false
			}
			return element.ColorValue(c), true
		case state.KindInt:
			return element.ColorValue(uint32(v.Int)), true
		}
	case element.KindFunction:
		if v.Kind == state.KindString {
			return element.FuncValue(v.Str), true
		}
	}
	return element.Value{}, false
}
