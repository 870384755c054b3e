package runtime

import (
	"sort"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/errors"
	"github.com/kryonlabs/kryon-sub009/krb"
)

// Renderer receives draw intents from a Render pass. Implementations
// translate them to a platform surface; the runtime never draws
// directly. Calls arrive in paint order, parents before children, with
// BeginElement/EndElement bracketing each subtree.
type Renderer interface {
	BeginElement(h element.Handle, box element.Box)
	EndElement(h element.Handle)
	DrawRect(box element.Box, color uint32)
	DrawText(box element.Box, text string, color uint32, size float64)
	DrawImage(box element.Box, src string)
	PushClip(box element.Box)
	PopClip()
}

const (
	defaultTextColor   = 0x000000FF
	defaultButtonColor = 0xD0D0D0FF
)

// Render walks the tree in paint order and emits draw intents for
// every node still marked needs-render, consuming the flag. Invisible
// subtrees are pruned. Fixed-size containers clip their children.
// Returns the number of nodes drawn.
func (r *Runtime) Render(out Renderer) (int, error) {
	if out == nil {
		return 0, errors.InvalidInput(errors.PhaseRender, "nil renderer")
	}
	if r.tree == nil {
		return 0, errors.NotInitialized(errors.PhaseRender, "document")
	}

	drawn := 0
	for _, root := range r.tree.Roots() {
		drawn += r.renderNode(out, root)
	}
	return drawn, nil
}

func (r *Runtime) renderNode(out Renderer, h element.Handle) int {
	if !r.tree.Visible(h) {
		return 0
	}

	box := r.tree.Box(h)
	out.BeginElement(h, box)
	defer out.EndElement(h)

	drawn := 0
	if r.tree.NeedsRender(h) {
		r.emit(out, h, box)
		r.tree.ClearRender(h)
		drawn++
	}

	fixedW, fixedH := r.fixedExtent(h)
	clip := fixedW >= 0 && fixedH >= 0
	if clip {
		out.PushClip(box)
	}
	// Child order is paint order unless z_index overrides it. The sort
	// is stable so equal z values keep document order.
	children := r.tree.Children(h)
	sort.SliceStable(children, func(i, j int) bool {
		return r.propFloat(children[i], "z_index", 0) < r.propFloat(children[j], "z_index", 0)
	})
	for _, c := range children {
		drawn += r.renderNode(out, c)
	}
	if clip {
		out.PopClip()
	}
	return drawn
}

// emit produces the per-type intents for one node.
func (r *Runtime) emit(out Renderer, h element.Handle, box element.Box) {
	bg, hasBG := r.propColor(h, "background")

	switch r.tree.Type(h) {
	case krb.ElementText:
		r.emitText(out, h, box)
	case krb.ElementImage:
		if v, ok := r.tree.GetProperty(h, "src"); ok {
			out.DrawImage(box, v.Str)
		}
	case krb.ElementButton, krb.ElementInput:
		if !hasBG {
			bg = defaultButtonColor
		}
		out.DrawRect(box, bg)
		r.emitText(out, h, box)
	default:
		if hasBG {
			out.DrawRect(box, bg)
		}
	}
}

func (r *Runtime) emitText(out Renderer, h element.Handle, box element.Box) {
	text := ""
	if v, ok := r.tree.GetProperty(h, "text"); ok {
		text = v.Str
	} else if v, ok := r.tree.GetProperty(h, "value"); ok {
		text = v.String()
	}
	if text == "" {
		return
	}
	color, ok := r.propColor(h, "color")
	if !ok {
		color = defaultTextColor
	}
	out.DrawText(box, text, color, r.propFloat(h, "font_size", defaultFontSize))
}

func (r *Runtime) propColor(h element.Handle, name string) (uint32, bool) {
	v, ok := r.tree.GetProperty(h, name)
	if !ok || v.Kind != element.KindColor {
		return 0, false
	}
	return v.Color, true
}
