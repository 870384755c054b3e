package event

import (
	"time"

	"github.com/kryonlabs/kryon-sub009/element"
)

// Type identifies an event category.
type Type uint16

const (
	TypeInvalid Type = iota

	// Window events.
	TypeWindowResize
	TypeWindowClose
	TypeWindowFocus
	TypeWindowBlur

	// Pointer events.
	TypeMouseDown
	TypeMouseUp
	TypeMouseMove
	TypeClick
	TypeWheel

	// Keyboard events.
	TypeKeyDown
	TypeKeyUp
	TypeTextInput

	// Touch events.
	TypeTouchStart
	TypeTouchMove
	TypeTouchEnd

	// Widget events.
	TypeFocus
	TypeBlur
	TypeChange
	TypeSubmit

	TypeCustom
)

var typeNames = map[Type]string{
	TypeWindowResize: "window_resize",
	TypeWindowClose:  "window_close",
	TypeWindowFocus:  "window_focus",
	TypeWindowBlur:   "window_blur",
	TypeMouseDown:    "mouse_down",
	TypeMouseUp:      "mouse_up",
	TypeMouseMove:    "mouse_move",
	TypeClick:        "click",
	TypeWheel:        "wheel",
	TypeKeyDown:      "key_down",
	TypeKeyUp:        "key_up",
	TypeTextInput:    "text_input",
	TypeTouchStart:   "touch_start",
	TypeTouchMove:    "touch_move",
	TypeTouchEnd:     "touch_end",
	TypeFocus:        "focus",
	TypeBlur:         "blur",
	TypeChange:       "change",
	TypeSubmit:       "submit",
	TypeCustom:       "custom",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// Modifiers is the set of modifier keys held when the event fired.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
	ModMeta
)

func (m Modifiers) String() string {
	out := ""
	if m&ModCtrl != 0 {
		out += "Ctrl+"
	}
	if m&ModShift != 0 {
		out += "Shift+"
	}
	if m&ModAlt != 0 {
		out += "Alt+"
	}
	if m&ModMeta != 0 {
		out += "Meta+"
	}
	if out == "" {
		return "none"
	}
	return out[:len(out)-1]
}

// Event is one queued input occurrence. Payload fields are
// category-specific; unused fields stay zero.
type Event struct {
	Type   Type
	Target element.Handle // zero handle for untargeted events

	// Timestamp is monotonic, relative to dispatcher creation. Push
	// stamps it when zero.
	Timestamp time.Duration

	// Pointer payload.
	X, Y   float64
	Button uint8
	DeltaX float64
	DeltaY float64

	// Keyboard payload.
	Key  Key
	Mods Modifiers
	Text string

	// Window payload.
	Width, Height int

	// Custom payload.
	Name string
	Data any

	handled          bool
	defaultPrevented bool
}

// MarkHandled stops further dispatch of this event.
func (e *Event) MarkHandled() {
	e.handled = true
}

// Handled reports whether a listener stopped dispatch.
func (e *Event) Handled() bool {
	return e.handled
}

// PreventDefault suppresses the default action without stopping
// dispatch.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports whether the default action was suppressed.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}
