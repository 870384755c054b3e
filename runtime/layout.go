package runtime

import (
	"unicode/utf8"

	"github.com/kryonlabs/kryon-sub009/element"
	"github.com/kryonlabs/kryon-sub009/krb"
)

// Margin and padding vectors use CSS order.
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

const (
	defaultFontSize = 16.0
	// Width of one glyph relative to the font size. Real text metrics
	// belong to the platform layer; the layout pass only needs a stable
	// estimate so auto-sized containers converge.
	glyphAspect = 0.6
	lineHeight  = 1.25
)

// layout recomputes geometry for every root whose subtree holds a
// dirty node. Measurement is a single top-down pass with a vertical
// flow model: children stack below each other, separated by the
// parent's gap property. Returns true when any node was laid out.
func (r *Runtime) layout() bool {
	ran := false
	for _, root := range r.tree.Roots() {
		if !r.subtreeDirty(root) {
			continue
		}
		box := r.tree.Box(root)
		r.layoutNode(root, box.X, box.Y)
		ran = true
	}
	return ran
}

func (r *Runtime) subtreeDirty(h element.Handle) bool {
	if r.tree.NeedsLayout(h) {
		return true
	}
	for _, c := range r.tree.Children(h) {
		if r.subtreeDirty(c) {
			return true
		}
	}
	return false
}

// layoutNode places h at (x, y) and returns its outer size including
// margins. Invisible nodes take no space.
func (r *Runtime) layoutNode(h element.Handle, x, y float64) (w, hgt float64) {
	if !r.tree.Visible(h) {
		r.clearSubtree(h)
		return 0, 0
	}

	box := r.tree.Box(h)
	margin, padding := box.Margin, box.Padding

	innerX := x + margin[edgeLeft] + padding[edgeLeft]
	innerY := y + margin[edgeTop] + padding[edgeTop]

	fixedW, fixedH := r.fixedExtent(h)
	contentW, contentH := 0.0, 0.0

	switch r.tree.Type(h) {
	case krb.ElementText, krb.ElementButton, krb.ElementInput:
		contentW, contentH = r.measureText(h)
	}

	gap := r.propFloat(h, "gap", 0)
	childY := innerY + contentH
	first := contentH == 0
	for _, c := range r.tree.Children(h) {
		at := childY
		if !first {
			at += gap
		}
		cw, ch := r.layoutNode(c, innerX, at)
		if cw == 0 && ch == 0 {
			continue
		}
		childY = at + ch
		first = false
		if cw > contentW {
			contentW = cw
		}
	}
	contentH = childY - innerY

	outW := contentW + padding[edgeLeft] + padding[edgeRight]
	outH := contentH + padding[edgeTop] + padding[edgeBottom]
	if fixedW >= 0 {
		outW = fixedW
	}
	if fixedH >= 0 {
		outH = fixedH
	}

	next := element.Box{
		X:       x + margin[edgeLeft],
		Y:       y + margin[edgeTop],
		W:       outW,
		H:       outH,
		Margin:  margin,
		Padding: padding,
	}
	if next != box {
		r.tree.InvalidateRender(h)
	}
	r.tree.SetBox(h, next)
	r.tree.ClearLayout(h)

	return outW + margin[edgeLeft] + margin[edgeRight],
		outH + margin[edgeTop] + margin[edgeBottom]
}

// clearSubtree consumes layout flags under a hidden node so it does
// not keep the frame loop dirty.
func (r *Runtime) clearSubtree(h element.Handle) {
	r.tree.ClearLayout(h)
	for _, c := range r.tree.Children(h) {
		r.clearSubtree(c)
	}
}

// fixedExtent returns the explicit width and height, or -1 for axes
// that size to content.
func (r *Runtime) fixedExtent(h element.Handle) (w, hgt float64) {
	w, hgt = -1, -1
	if v, ok := r.tree.GetProperty(h, "width"); ok {
		w = v.Float
	}
	if v, ok := r.tree.GetProperty(h, "height"); ok {
		hgt = v.Float
	}
	if v, ok := r.tree.GetProperty(h, "size"); ok {
		w, hgt = v.Vec[0], v.Vec[1]
	}
	return w, hgt
}

func (r *Runtime) measureText(h element.Handle) (w, hgt float64) {
	text := ""
	if v, ok := r.tree.GetProperty(h, "text"); ok {
		text = v.Str
	} else if v, ok := r.tree.GetProperty(h, "value"); ok {
		text = v.String()
	}
	if text == "" {
		return 0, 0
	}
	size := r.propFloat(h, "font_size", defaultFontSize)
	return glyphAspect * size * float64(utf8.RuneCountInString(text)),
		lineHeight * size
}

func (r *Runtime) propFloat(h element.Handle, name string, def float64) float64 {
	v, ok := r.tree.GetProperty(h, name)
	if !ok {
		return def
	}
	switch v.Kind {
	case element.KindFloat:
		return v.Float
	case element.KindInt:
		return float64(v.Int)
	}
	return def
}
