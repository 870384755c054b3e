package element

// propSpec describes a recognized property name: the value kind it
// accepts and whether changing it requires a layout pass (render-only
// properties skip layout and just repaint).
type propSpec struct {
	kind   Kind
	layout bool
}

// schema is the registry of recognized property names. Setting a name
// outside this table is reported and skipped; setting a recognized
// name with the wrong value kind is a type mismatch.
var schema = map[string]propSpec{
	"id": {kind: KindString},

	// Geometry.
	"width":      {kind: KindFloat, layout: true},
	"height":     {kind: KindFloat, layout: true},
	"x":          {kind: KindFloat, layout: true},
	"y":          {kind: KindFloat, layout: true},
	"min_width":  {kind: KindFloat, layout: true},
	"min_height": {kind: KindFloat, layout: true},
	"size":       {kind: KindVec, layout: true},
	"position":   {kind: KindVec, layout: true},
	"margin":     {kind: KindVec, layout: true},
	"padding":    {kind: KindVec, layout: true},
	"gap":        {kind: KindFloat, layout: true},
	"z_index":    {kind: KindInt},

	// Appearance. Text content participates in measurement, so it is
	// a layout property, not just a repaint.
	"text":         {kind: KindString, layout: true},
	"src":          {kind: KindString},
	"background":   {kind: KindColor},
	"color":        {kind: KindColor},
	"border_color": {kind: KindColor},
	"font_size":    {kind: KindFloat, layout: true},
	"opacity":      {kind: KindFloat},
	"visible":      {kind: KindBool, layout: true},
	"enabled":      {kind: KindBool},

	// Widget state.
	"value":    {kind: KindString, layout: true},
	"checked":  {kind: KindBool},
	"selected": {kind: KindInt},
	"min":      {kind: KindFloat},
	"max":      {kind: KindFloat},
	"step":     {kind: KindFloat},
	"target":   {kind: KindElementRef},

	// Handlers.
	"on_click":    {kind: KindFunction},
	"on_change":   {kind: KindFunction},
	"on_submit":   {kind: KindFunction},
	"on_key_down": {kind: KindFunction},
	"on_focus":    {kind: KindFunction},
	"on_blur":     {kind: KindFunction},
}

// KnownProperty reports whether name is in the property registry.
func KnownProperty(name string) bool {
	_, ok := schema[name]
	return ok
}

// PropertyKind returns the value kind a recognized property accepts.
func PropertyKind(name string) (Kind, bool) {
	s, ok := schema[name]
	return s.kind, ok
}
